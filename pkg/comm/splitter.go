package comm

import (
	"github.com/robotalks/wake.go/pkg/wake"
)

// MaxFrameLen bounds the raw size of one frame on the wire: every
// byte after the start marker can escape to two.
const MaxFrameLen = 1 + 2*(wake.MaxDataLen+4)

type splitState int

const (
	stateSeek   splitState = iota // discarding noise before a start marker
	stateHeader                   // collecting address, command and length
	stateBody                     // collecting data and CRC
)

// Splitter locates frame boundaries on a continuous byte stream. It
// understands just enough of the framing, escapes and the length
// field, to know where a frame ends; validating the buffer it hands
// out is left to wake.Decode.
type Splitter struct {
	state     splitState
	buf       []byte
	escaped   bool
	plain     int // frame bytes so far with escapes collapsed
	need      int // plain size of the whole frame, 0 until the length byte
	addressed bool
}

// Feed consumes one byte off the stream and returns a complete raw
// frame when this byte finishes one, nil otherwise. A start marker
// showing up mid-frame abandons the partial frame and starts over.
func (s *Splitter) Feed(b byte) []byte {
	if b == wake.FEND {
		s.restart()
		return nil
	}
	if s.state == stateSeek {
		return nil
	}
	if len(s.buf) >= MaxFrameLen {
		s.Reset()
		return nil
	}

	v := b
	if s.escaped {
		s.escaped = false
		switch b {
		case wake.TFEND:
			v = wake.FEND
		case wake.TFESC:
			v = wake.FESC
		}
		// an invalid escape still counts as one byte here and gets
		// rejected by the decoder
	} else if b == wake.FESC {
		s.buf = append(s.buf, b)
		s.escaped = true
		return nil
	}
	s.buf = append(s.buf, b)
	s.advance(v)

	if s.need > 0 && s.plain == s.need {
		frame := s.buf
		s.Reset()
		return frame
	}
	return nil
}

// Collecting reports whether the splitter is inside a frame.
func (s *Splitter) Collecting() bool {
	return s.state != stateSeek
}

// Reset discards any partial frame and waits for the next start
// marker.
func (s *Splitter) Reset() {
	s.state = stateSeek
	s.buf = nil
	s.escaped = false
	s.plain = 0
	s.need = 0
	s.addressed = false
}

func (s *Splitter) restart() {
	s.Reset()
	s.state = stateHeader
	s.buf = append(s.buf, wake.FEND)
	s.plain = 1
}

func (s *Splitter) advance(v byte) {
	s.plain++
	switch s.plain {
	case 2:
		s.addressed = v&wake.AddrMask != 0
	case s.headerLen():
		s.need = s.headerLen() + int(v) + 1
		s.state = stateBody
	}
}

// headerLen is the plain size through the length field, start marker
// included.
func (s *Splitter) headerLen() int {
	if s.addressed {
		return 4
	}
	return 3
}
