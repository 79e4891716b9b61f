package wake

// Stuff escapes marker bytes so they cannot occur literally inside a
// frame. The first byte is copied untouched: it is the start marker
// and must remain a literal FEND on the wire. After it, every FESC
// becomes FESC TFESC and every FEND becomes FESC TFEND.
func Stuff(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	stuffed := make([]byte, 0, len(data)+2)
	stuffed = append(stuffed, data[0])
	for _, b := range data[1:] {
		switch b {
		case FESC:
			stuffed = append(stuffed, FESC, TFESC)
		case FEND:
			stuffed = append(stuffed, FESC, TFEND)
		default:
			stuffed = append(stuffed, b)
		}
	}
	return stuffed, nil
}

// Destuff reverses Stuff. A FESC must be followed by TFESC or TFEND;
// any other byte after it is ErrDestuff, and a FESC ending the buffer
// is ErrWrongLength. All other bytes copy through untouched, a
// literal FEND included: frame boundaries are the caller's concern.
func Destuff(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != FESC {
			out = append(out, data[i])
			continue
		}
		if i == len(data)-1 {
			return nil, ErrWrongLength
		}
		i++
		switch data[i] {
		case TFESC:
			out = append(out, FESC)
		case TFEND:
			out = append(out, FEND)
		default:
			return nil, ErrDestuff
		}
	}
	return out, nil
}
