package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReply indicates no reply received from peer.
	// This happens when a reply is received for a latter command, and
	// all commands pending before it fail with this error.
	ErrNoReply = errors.New("no reply")
)

// ReplySizeError indicates a reply payload differing in size from
// what the command expected.
type ReplySizeError struct {
	Want int
	Got  int
}

// Error implements error.
func (e *ReplySizeError) Error() string {
	return fmt.Sprintf("unexpected reply size: want %d, got %d", e.Want, e.Got)
}
