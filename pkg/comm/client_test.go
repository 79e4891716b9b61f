package comm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wake.go/pkg/wake"
)

type chanReadWriter struct {
	readCh  <-chan byte
	writeCh chan byte
}

func (c *chanReadWriter) Read(p []byte) (int, error) {
	p[0] = <-c.readCh
	return 1, nil
}

func (c *chanReadWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		c.writeCh <- b
	}
	return len(p), nil
}

type clientTestEnv struct {
	t        *testing.T
	readCh   chan byte
	writeCh  chan byte
	client   *Client
	commands []*Command
}

func newClientTestEnv(t *testing.T) *clientTestEnv {
	env := &clientTestEnv{
		t:       t,
		readCh:  make(chan byte, 1),
		writeCh: make(chan byte, 64),
	}
	link := NewLink(&chanReadWriter{readCh: env.readCh, writeCh: env.writeCh})
	link.ReadTimeout = true
	link.Timeout = 0
	env.client = NewClient(link)
	return env
}

func (e *clientTestEnv) wrapFn(name string, fn func(string)) {
	e.t.Logf("START %s", name)
	fn(name)
	e.t.Logf("STOP %s", name)
}

func (e *clientTestEnv) run(fns ...func(string)) {
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	go e.client.Run(ctx)
	for n, fn := range fns {
		e.wrapFn(fmt.Sprintf("step-%d", n), fn)
	}
}

func (e *clientTestEnv) sequential(fns ...func(string)) func(string) {
	return func(name string) {
		for n, fn := range fns {
			e.wrapFn(name+fmt.Sprintf(".%d", n), fn)
		}
	}
}

func (e *clientTestEnv) parallel(fns ...func(string)) func(string) {
	return func(name string) {
		var wg sync.WaitGroup
		for n, fn := range fns {
			wg.Add(1)
			go func(name string, fn func(string)) {
				defer wg.Done()
				e.wrapFn(name, fn)
			}(name+fmt.Sprintf(".%d", n), fn)
		}
		wg.Wait()
	}
}

func (e *clientTestEnv) expectFrame(pkt *wake.Packet) func(string) {
	return func(name string) {
		encoded, err := pkt.Encode()
		require.NoErrorf(e.t, err, "%s encode", name)
		for i, b := range encoded {
			select {
			case got := <-e.writeCh:
				require.Equalf(e.t, b, got, "%s.byte[%d] mismatch", name, i)
			case <-time.After(500 * time.Millisecond):
				e.t.Fatalf("%s.byte[%d] timeout", name, i)
			}
		}
	}
}

func (e *clientTestEnv) injectFrame(pkt *wake.Packet) func(string) {
	return func(name string) {
		encoded, err := pkt.Encode()
		require.NoErrorf(e.t, err, "%s encode", name)
		for _, b := range encoded {
			e.readCh <- b
		}
	}
}

func (e *clientTestEnv) clientDo(code byte, sizeWant int, data ...byte) func(string) {
	return func(name string) {
		e.commands = append(e.commands, e.client.Do(&wake.Packet{Command: code, Data: data}, sizeWant))
	}
}

func (e *clientTestEnv) nextResult(name string) (r Result) {
	require.NotEmptyf(e.t, e.commands, "%s commands empty", name)
	cmd := e.commands[0]
	e.commands = e.commands[1:]
	select {
	case r = <-cmd.ResultChan():
	case <-time.After(500 * time.Millisecond):
		e.t.Fatalf("%s: timeout", name)
	}
	return
}

func (e *clientTestEnv) clientResult(code byte, data ...byte) func(string) {
	return func(name string) {
		r := e.nextResult(name)
		require.NoErrorf(e.t, r.Err, "%s unexpected err", name)
		require.Equalf(e.t, code, r.Code, "%s code mismatch", name)
		if len(data) == 0 {
			require.Emptyf(e.t, r.Data, "%s data not empty", name)
		} else {
			require.Equalf(e.t, data, r.Data, "%s data mismatch", name)
		}
	}
}

func (e *clientTestEnv) clientResultErr(err error) func(string) {
	return func(name string) {
		r := e.nextResult(name)
		require.Equalf(e.t, err, r.Err, "%s mismatch", name)
	}
}

func (e *clientTestEnv) clientEvent(code byte, data ...byte) func(string) {
	return func(name string) {
		select {
		case pkt := <-e.client.EventChan():
			require.Equalf(e.t, code, pkt.Command, "%s code mismatch", name)
			if len(data) == 0 {
				require.Emptyf(e.t, pkt.Data, "%s data not empty", name)
			} else {
				require.Equalf(e.t, data, pkt.Data, "%s data mismatch", name)
			}
		case <-time.After(500 * time.Millisecond):
			e.t.Fatalf("%s timeout", name)
		}
	}
}

func TestClientDo(t *testing.T) {
	testCases := []struct {
		name  string
		logic func(*clientTestEnv)
	}{
		{
			"simple command",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.clientDo(1, NoCheckRxSize),
						env.expectFrame(&wake.Packet{Command: 1}),
					),
					env.injectFrame(&wake.Packet{Command: 1, Data: []byte{0xAA}}),
					env.clientResult(1, 0xAA),
				)
			},
		},
		{
			"no reply",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.sequential(
							env.clientDo(1, NoCheckRxSize),
							env.clientDo(2, NoCheckRxSize),
						),
						env.sequential(
							env.expectFrame(&wake.Packet{Command: 1}),
							env.expectFrame(&wake.Packet{Command: 2}),
						),
					),
					env.injectFrame(&wake.Packet{Command: 2, Data: []byte{3}}),
					env.clientResultErr(ErrNoReply),
					env.clientResult(2, 3),
				)
			},
		},
		{
			"reply size mismatch",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.clientDo(3, 1),
						env.expectFrame(&wake.Packet{Command: 3}),
					),
					env.injectFrame(&wake.Packet{Command: 3, Data: []byte{1, 2}}),
					env.clientResultErr(&ReplySizeError{Want: 1, Got: 2}),
				)
			},
		},
		{
			"event",
			func(env *clientTestEnv) {
				env.run(
					env.injectFrame(&wake.Packet{Command: 0x10, Data: []byte{2}}),
					env.clientEvent(0x10, 2),
				)
			},
		},
		{
			"event between commands",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.clientDo(1, NoCheckRxSize),
						env.expectFrame(&wake.Packet{Command: 1}),
					),
					env.injectFrame(&wake.Packet{Command: 0x10, Data: []byte{2}}),
					env.clientEvent(0x10, 2),
					env.injectFrame(&wake.Packet{Command: 1}),
					env.clientResult(1),
				)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newClientTestEnv(t)
			tc.logic(env)
		})
	}
}
