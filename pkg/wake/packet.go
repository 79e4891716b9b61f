package wake

import (
	"bytes"
	"fmt"
)

// Frame marker bytes.
const (
	// FEND marks the start of a frame.
	FEND byte = 0xC0
	// FESC introduces an escaped byte inside a frame.
	FESC byte = 0xDB
	// TFEND substitutes a literal FEND after FESC.
	TFEND byte = 0xDC
	// TFESC substitutes a literal FESC after FESC.
	TFESC byte = 0xDD
)

const (
	// AddrMask flags the presence of an address in the byte
	// following the start marker.
	AddrMask byte = 0x80
	// MaxAddress is the largest device address.
	MaxAddress byte = 0x7F
	// MaxCommand is the largest command code.
	MaxCommand byte = 0x7F
	// MaxDataLen is the largest data payload a frame can carry.
	MaxDataLen = 0xFF
	// MinFrameLen is the smallest viable frame:
	// start marker, command, length, CRC.
	MinFrameLen = 4
)

// Packet is one wake protocol packet.
type Packet struct {
	// Address is the optional device address. nil leaves the frame
	// unaddressed, for point-to-point links.
	Address *byte
	// Command is the command code.
	Command byte
	// Data is the optional payload. nil means no data; a frame with
	// a zero length field always decodes back to nil.
	Data []byte
}

// Addr is a convenience for building the optional address field.
func Addr(a byte) *byte {
	return &a
}

// Encode returns the on-wire bytes of the packet: start marker,
// optional address with AddrMask set, command, data length, data and
// CRC, with everything after the start marker stuffed.
func (p *Packet) Encode() ([]byte, error) {
	if p.Address != nil && *p.Address > MaxAddress {
		return nil, ErrAddressRange
	}
	if p.Command > MaxCommand {
		return nil, ErrCommandRange
	}
	if len(p.Data) > MaxDataLen {
		return nil, ErrDataLen
	}
	frame := make([]byte, 0, MinFrameLen+1+len(p.Data))
	frame = append(frame, FEND)
	if p.Address != nil {
		frame = append(frame, *p.Address|AddrMask)
	}
	frame = append(frame, p.Command, byte(len(p.Data)))
	frame = append(frame, p.Data...)
	frame = append(frame, Crc(frame))
	return Stuff(frame)
}

// String formats the packet for diagnostics, with the data laid out
// as a 16-per-row hex dump.
func (p *Packet) String() string {
	var w bytes.Buffer
	if p.Address != nil {
		fmt.Fprintf(&w, "ADDR: 0x%02X\n", *p.Address)
	} else {
		w.WriteString("ADDR: ----\n")
	}
	fmt.Fprintf(&w, "CMD:  0x%02X\n", p.Command)
	if p.Data == nil {
		w.WriteString("DATA: none")
		return w.String()
	}
	fmt.Fprintf(&w, "DATA: %d bytes\n", len(p.Data))
	w.WriteString("     0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f")
	for i, b := range p.Data {
		if i%16 == 0 {
			fmt.Fprintf(&w, "\n%02x: ", i)
		}
		fmt.Fprintf(&w, "%02x ", b)
	}
	return w.String()
}
