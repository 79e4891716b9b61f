package mqtt

import (
	"context"
	"io"
)

// ReadWriter moves encoded frames through a pair of topics and
// implements comm.FrameReadWriter.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	frameCh chan []byte
	doneCh  chan struct{}
}

// NewFrameReadWriter creates the ReadWriter.
func NewFrameReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:   q,
		frameCh: make(chan []byte, 1),
		doneCh:  make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForDevice sets topics using the default convention on the device
// side of the broker:
// SubTopic = name/rx (frames to deliver to the device)
// PubTopic = name/tx (frames the device transmitted)
func (p *ReadWriter) ForDevice(name string) *ReadWriter {
	return p.WithTopics(name+"/rx", name+"/tx")
}

// ForRemote sets topics using the default convention on the remote
// side of the broker, mirroring ForDevice.
func (p *ReadWriter) ForRemote(name string) *ReadWriter {
	return p.WithTopics(name+"/tx", name+"/rx")
}

// ReadFrame implements comm.FrameReader. It reports io.EOF after Run
// stopped.
func (p *ReadWriter) ReadFrame() ([]byte, error) {
	select {
	case frame := <-p.frameCh:
		return frame, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WriteFrame implements comm.FrameWriter.
func (p *ReadWriter) WriteFrame(frame []byte) error {
	token := p.Queue.Pub(p.PubTopic, frame)
	token.Wait()
	return token.Error()
}

// Run subscribes and relays incoming frames until the context is
// canceled.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
	<-ctx.Done()
	sub.Close()
	close(p.doneCh)
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.frameCh <- payload:
	case <-p.doneCh:
	}
}
