// Package shield drives the 4-relay shield firmware over a wake
// request/reply client. The firmware understands two commands:
// CmdInfo returns an identification string, and CmdRelaysSet switches
// one relay into a mode and echoes a single status byte.
package shield

import (
	"context"
	"fmt"
	"time"

	"github.com/robotalks/wake.go/pkg/comm"
	"github.com/robotalks/wake.go/pkg/wake"
)

// Commands understood by the relay shield firmware.
const (
	CmdInfo      byte = 0x02
	CmdRelaysSet byte = 0x10
)

// Geometry of the shield.
const (
	RelayCount byte = 4
	ModeCount  byte = 5
)

// ArgRangeError indicates a relay or mode outside the shield geometry.
type ArgRangeError struct {
	Arg   string
	Value byte
	Max   byte
}

// Error implements error.
func (e *ArgRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range, max %d", e.Arg, e.Value, e.Max)
}

// Shield drives one relay shield.
type Shield struct {
	client *comm.Client
}

// New creates a Shield over the client.
func New(client *comm.Client) *Shield {
	return &Shield{client: client}
}

// Client gets the underlying client.
func (s *Shield) Client() *comm.Client {
	return s.client
}

// Info queries the identification string of the firmware.
func (s *Shield) Info(ctx context.Context) (string, error) {
	res := s.client.Do(&wake.Packet{Command: CmdInfo}, comm.NoCheckRxSize).Wait(ctx)
	if res.Err != nil {
		return "", res.Err
	}
	return string(res.Data), nil
}

// SetRelay switches one relay into a mode. The status byte echoed by
// the firmware is discarded.
func (s *Shield) SetRelay(ctx context.Context, relay, mode byte) error {
	if relay >= RelayCount {
		return &ArgRangeError{Arg: "relay", Value: relay, Max: RelayCount - 1}
	}
	if mode >= ModeCount {
		return &ArgRangeError{Arg: "mode", Value: mode, Max: ModeCount - 1}
	}
	pkt := &wake.Packet{Command: CmdRelaysSet, Data: []byte{relay, mode}}
	return s.client.Do(pkt, 1).Wait(ctx).Err
}

// Cycle steps every relay through every mode until the context is
// canceled, pausing interval between steps. visit, when not nil,
// observes each completed step.
func (s *Shield) Cycle(ctx context.Context, interval time.Duration, visit func(relay, mode byte)) error {
	var relay, mode byte
	for {
		if err := s.SetRelay(ctx, relay, mode); err != nil {
			return err
		}
		if visit != nil {
			visit(relay, mode)
		}
		if mode++; mode == ModeCount {
			mode = 0
			relay = (relay + 1) % RelayCount
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
