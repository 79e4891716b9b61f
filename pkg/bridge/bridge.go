// Package bridge forwards wake frames between a device Link and a
// remote frame transport, so a remote peer can talk wake to a device
// behind a gateway.
package bridge

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/wake.go/pkg/comm"
	"github.com/robotalks/wake.go/pkg/wake"
)

// Bridge pumps frames both ways between a Link and a remote
// transport. Frames failing to decode on either side are dropped,
// so the device sees only well-formed traffic.
type Bridge struct {
	Link   *comm.Link
	Remote comm.FrameReadWriter
}

// New creates a Bridge and installs it as the link's packet handler.
func New(link *comm.Link, remote comm.FrameReadWriter) *Bridge {
	b := &Bridge{Link: link, Remote: remote}
	link.Handler = b
	return b
}

// HandlePacket implements comm.PacketHandler and forwards device
// packets to the remote side.
func (b *Bridge) HandlePacket(_ context.Context, pkt *wake.Packet) {
	frame, err := pkt.Encode()
	if err != nil {
		glog.Warningf("drop device packet: %v", err)
		return
	}
	if err = b.Remote.WriteFrame(frame); err != nil {
		glog.Warningf("remote write failed: %v", err)
	}
}

// Run pumps remote frames to the device until the remote side closes
// or the context is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		frame, err := b.Remote.ReadFrame()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		pkt, err := wake.Decode(frame)
		if err != nil {
			glog.V(1).Infof("drop %d byte remote frame: %v", len(frame), err)
			continue
		}
		if err = b.Link.Send(pkt); err != nil {
			return err
		}
	}
}
