package wake

// Decode parses one received frame into a Packet. The buffer must
// hold a single already-delimited frame starting at its FEND marker;
// callers reading a continuous stream locate the boundaries first
// (see pkg/comm).
//
// The pipeline stops at the first failure: minimum length, start
// marker, destuffing, the length field against the actual frame, and
// finally the CRC.
func Decode(data []byte) (*Packet, error) {
	if len(data) < MinFrameLen {
		return nil, ErrTooShort
	}
	if data[0] != FEND {
		return nil, ErrNoStart
	}
	frame, err := Destuff(data)
	if err != nil {
		return nil, err
	}
	// Escape pairs collapse during destuffing, so the frame can come
	// out shorter than it went in.
	if len(frame) < MinFrameLen {
		return nil, ErrTooShort
	}

	var pkt Packet
	i := 1
	if frame[i]&AddrMask != 0 {
		addr := frame[i] &^ AddrMask
		pkt.Address = &addr
		i++
	}
	pkt.Command = frame[i]
	i++

	n := int(frame[i])
	body := frame[i+1:]
	if len(body) != n+1 {
		return nil, ErrWrongLength
	}
	if n > 0 {
		pkt.Data = make([]byte, n)
		copy(pkt.Data, body[:n])
	}

	if Crc(frame[:len(frame)-1]) != frame[len(frame)-1] {
		return nil, ErrWrongCrc
	}
	return &pkt, nil
}
