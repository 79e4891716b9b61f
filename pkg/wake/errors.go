package wake

import "errors"

var (
	// ErrTooShort indicates the buffer is below the minimum viable
	// frame length.
	ErrTooShort = errors.New("too short packet")
	// ErrNoStart indicates the buffer does not begin with FEND.
	ErrNoStart = errors.New("cannot find start of packet")
	// ErrDestuff indicates an invalid escape sequence.
	ErrDestuff = errors.New("destuffing failed")
	// ErrWrongLength indicates the length field disagrees with the
	// actual frame, or an escape is cut off at the end of the buffer.
	ErrWrongLength = errors.New("wrong packet length")
	// ErrWrongCrc indicates a checksum mismatch.
	ErrWrongCrc = errors.New("wrong CRC")
	// ErrAddressRange indicates an address above MaxAddress.
	ErrAddressRange = errors.New("address out of range")
	// ErrCommandRange indicates a command code above MaxCommand.
	ErrCommandRange = errors.New("command out of range")
	// ErrDataLen indicates a payload longer than MaxDataLen.
	ErrDataLen = errors.New("data too long")
	// ErrEmptyInput indicates an empty buffer where at least the
	// start marker is required.
	ErrEmptyInput = errors.New("empty input")
)
