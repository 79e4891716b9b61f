package comm

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/wake.go/pkg/wake"
)

// PacketHandler is called when a packet is received.
type PacketHandler interface {
	HandlePacket(context.Context, *wake.Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *wake.Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *wake.Packet) {
	f(ctx, pkt)
}

// PacketHandlers fans one packet out to multiple handlers.
func PacketHandlers(handlers ...PacketHandler) PacketHandler {
	return HandlePacketFunc(func(ctx context.Context, pkt *wake.Packet) {
		for _, h := range handlers {
			h.HandlePacket(ctx, pkt)
		}
	})
}

// Stats counts frames seen by a link.
type Stats struct {
	Received uint64 // frames decoded and dispatched
	Dropped  uint64 // frames timed out or failed to decode
}

// Link send/recv packets over a byte stream.
type Link struct {
	ReadWriter  io.ReadWriter
	Handler     PacketHandler
	Timeout     time.Duration // inter-byte gap before a partial frame is dropped
	ReadTimeout bool          // set to true if ReadWriter already supports timeout with Read

	splitter  Splitter
	idleTimer <-chan time.Time

	lock     sync.Mutex
	stats    Stats
	statLock sync.RWMutex
}

// NewLink creates a Link over a byte stream.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter: rw,
		Timeout:    100 * time.Millisecond,
	}
}

// Stats reports the frame counters.
func (l *Link) Stats() Stats {
	l.statLock.RLock()
	defer l.statLock.RUnlock()
	return l.stats
}

// Send encodes and writes one packet.
func (l *Link) Send(pkt *wake.Packet) error {
	data, err := pkt.Encode()
	if err != nil {
		return err
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	_, err = l.ReadWriter.Write(data)
	return err
}

// Run processes the link in the background.
func (l *Link) Run(ctx context.Context) error {
	if l.ReadTimeout {
		buf := make([]byte, 1)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.idleTimer:
				l.idle()
			default:
				n, err := l.ReadWriter.Read(buf)
				if err != nil {
					if !os.IsTimeout(err) {
						return err
					}
					l.idle()
				} else if n == 0 {
					l.idle()
				} else {
					l.feed(ctx, buf[0])
				}
			}
		}
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			l.feed(ctx, b)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-l.idleTimer:
			l.idle()
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			n, err := l.ReadWriter.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			if n == 0 {
				continue
			}
			select {
			case byteCh <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (l *Link) feed(ctx context.Context, b byte) {
	frame := l.splitter.Feed(b)
	if frame == nil {
		if l.splitter.Collecting() && l.Timeout > 0 {
			l.idleTimer = time.After(l.Timeout)
		} else {
			l.idleTimer = nil
		}
		return
	}
	l.idleTimer = nil
	pkt, err := wake.Decode(frame)
	l.statLock.Lock()
	if err != nil {
		l.stats.Dropped++
	} else {
		l.stats.Received++
	}
	l.statLock.Unlock()
	if err != nil {
		glog.V(1).Infof("drop %d byte frame: %v", len(frame), err)
		return
	}
	if h := l.Handler; h != nil {
		h.HandlePacket(ctx, pkt)
	}
}

func (l *Link) idle() {
	l.idleTimer = nil
	if !l.splitter.Collecting() {
		return
	}
	l.splitter.Reset()
	l.statLock.Lock()
	l.stats.Dropped++
	l.statLock.Unlock()
	glog.V(2).Info("partial frame timed out")
}
