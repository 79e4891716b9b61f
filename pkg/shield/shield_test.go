package shield

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/wake.go/pkg/comm"
	"github.com/robotalks/wake.go/pkg/wake"
)

// fakeShield emulates the relay shield firmware behind an
// io.ReadWriter. Whole request frames arrive in single Write calls,
// and reply bytes are drained one at a time through Read.
type fakeShield struct {
	t    *testing.T
	info string

	lock   sync.Mutex
	modes  [RelayCount]byte
	rxCh   chan byte
	closed bool
}

func newFakeShield(t *testing.T, info string) *fakeShield {
	return &fakeShield{t: t, info: info, rxCh: make(chan byte, 1024)}
}

func (f *fakeShield) Read(p []byte) (int, error) {
	b, ok := <-f.rxCh
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (f *fakeShield) Write(p []byte) (int, error) {
	pkt, err := wake.Decode(p)
	require.NoError(f.t, err)
	frame, err := f.handle(pkt).Encode()
	require.NoError(f.t, err)
	for _, b := range frame {
		f.rxCh <- b
	}
	return len(p), nil
}

func (f *fakeShield) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.closed {
		f.closed = true
		close(f.rxCh)
	}
	return nil
}

func (f *fakeShield) handle(pkt *wake.Packet) *wake.Packet {
	switch pkt.Command {
	case CmdInfo:
		return &wake.Packet{Command: CmdInfo, Data: []byte(f.info)}
	case CmdRelaysSet:
		require.Len(f.t, pkt.Data, 2)
		f.lock.Lock()
		f.modes[pkt.Data[0]] = pkt.Data[1]
		f.lock.Unlock()
		return &wake.Packet{Command: CmdRelaysSet, Data: []byte{0}}
	}
	return &wake.Packet{Command: pkt.Command}
}

func (f *fakeShield) mode(relay byte) byte {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.modes[relay]
}

func newTestShield(t *testing.T) (*Shield, *fakeShield) {
	fake := newFakeShield(t, "RelayShield v1.0")
	link := comm.NewLink(fake)
	link.Timeout = 0
	client := comm.NewClient(link)
	ctx, cancel := context.WithCancel(context.Background())
	go client.Run(ctx)
	t.Cleanup(func() {
		cancel()
		fake.Close()
	})
	return New(client), fake
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestShieldInfo(t *testing.T) {
	s, _ := newTestShield(t)
	info, err := s.Info(testCtx(t))
	require.NoError(t, err)
	require.Equal(t, "RelayShield v1.0", info)
}

func TestShieldSetRelay(t *testing.T) {
	s, fake := newTestShield(t)
	require.NoError(t, s.SetRelay(testCtx(t), 2, 3))
	require.Equal(t, byte(3), fake.mode(2))
}

func TestShieldSetRelayRange(t *testing.T) {
	s, _ := newTestShield(t)
	err := s.SetRelay(testCtx(t), RelayCount, 0)
	require.Error(t, err)
	require.Equal(t, "relay 4 out of range, max 3", err.Error())
	err = s.SetRelay(testCtx(t), 0, ModeCount)
	require.Error(t, err)
	require.Equal(t, "mode 5 out of range, max 4", err.Error())
}

func TestShieldCycle(t *testing.T) {
	s, _ := newTestShield(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stepCh := make(chan [2]byte, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Cycle(ctx, time.Millisecond, func(relay, mode byte) {
			stepCh <- [2]byte{relay, mode}
		})
	}()
	want := [][2]byte{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}, {1, 0}, {1, 1}}
	for _, step := range want {
		select {
		case got := <-stepCh:
			require.Equal(t, step, got)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for cycle step")
		}
	}
	cancel()
	for {
		select {
		case <-stepCh:
		case err := <-errCh:
			require.Equal(t, context.Canceled, err)
			return
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for cycle to stop")
		}
	}
}
