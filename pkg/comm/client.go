package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/wake.go/pkg/wake"
)

// NoCheckRxSize disables the reply size check for a command.
const NoCheckRxSize = -1

// Result is the result of a command using Do.
type Result struct {
	Err  error
	Code byte
	Data []byte
}

// Client provides request/reply operations over a Link. The peer
// echoes the command code in its reply, so a reply is matched to the
// oldest pending command carrying the same code. Pending commands
// skipped over by a reply fail with ErrNoReply. Packets matching no
// pending command are delivered as events.
type Client struct {
	link     *Link
	eventCh  chan *wake.Packet
	cmdsHead *Command
	cmdsTail *Command
	cmdsLock sync.Mutex
}

// Command represents a pending command waiting for reply.
type Command struct {
	code     byte
	sizeWant int
	resultCh chan Result
	next     *Command
}

// Code returns the request command code.
func (c *Command) Code() byte {
	return c.code
}

// ResultChan returns the chan to retrieve the result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// Wait blocks for the result until ctx is done.
func (c *Command) Wait(ctx context.Context) Result {
	select {
	case r := <-c.resultCh:
		return r
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}

// NewClient creates a client and wraps the link.
func NewClient(link *Link) *Client {
	c := &Client{
		link:    link,
		eventCh: make(chan *wake.Packet, 1),
	}
	c.link.Handler = c
	return c
}

// Link gets the wrapped link.
func (c *Client) Link() *Link {
	return c.link
}

// EventChan retrieves the event reporting chan.
func (c *Client) EventChan() <-chan *wake.Packet {
	return c.eventCh
}

// DoWith sends a command and expects a result in the provided chan.
// sizeWant is the exact reply payload size to accept, or
// NoCheckRxSize to accept any.
func (c *Client) DoWith(pkt *wake.Packet, sizeWant int, ch chan Result) *Command {
	cmd := &Command{code: pkt.Command, sizeWant: sizeWant, resultCh: ch}
	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	if err := c.link.Send(pkt); err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}
	if c.cmdsHead == nil {
		c.cmdsHead = cmd
	} else {
		c.cmdsTail.next = cmd
	}
	c.cmdsTail = cmd
	return cmd
}

// Do sends a command and returns a Command for the result.
func (c *Client) Do(pkt *wake.Packet, sizeWant int) *Command {
	return c.DoWith(pkt, sizeWant, make(chan Result, 1))
}

// HandlePacket implements PacketHandler.
func (c *Client) HandlePacket(ctx context.Context, pkt *wake.Packet) {
	c.cmdsLock.Lock()
	head := c.cmdsHead
	curr := c.cmdsHead
	for ; curr != nil; curr = curr.next {
		if curr.code == pkt.Command {
			if c.cmdsHead = curr.next; c.cmdsHead == nil {
				c.cmdsTail = nil
			}
			curr.next = nil
			break
		}
	}
	c.cmdsLock.Unlock()
	if curr == nil {
		select {
		case c.eventCh <- pkt:
		default:
			glog.V(1).Infof("event dropped, nobody listening: cmd 0x%02x", pkt.Command)
		}
		return
	}
	for ; head != curr; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
	if curr.sizeWant != NoCheckRxSize && len(pkt.Data) != curr.sizeWant {
		curr.resultCh <- Result{Err: &ReplySizeError{Want: curr.sizeWant, Got: len(pkt.Data)}}
		return
	}
	curr.resultCh <- Result{Code: pkt.Command, Data: pkt.Data}
}

// Run wraps Link.Run to implement Runnable.
func (c *Client) Run(ctx context.Context) error {
	return c.link.Run(ctx)
}
