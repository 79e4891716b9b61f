package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/wake.go/pkg/wake"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Viewers() == 1 },
		time.Second, 10*time.Millisecond)
	return conn
}

func recvFrame(t *testing.T, conn *websocket.Conn) string {
	var msg string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	return msg
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	hub.HandlePacket(context.Background(), &wake.Packet{
		Address: wake.Addr(0x12),
		Command: 3,
		Data:    []byte{0xAB, 0xCD},
	})
	require.JSONEq(t, `{"addr":18,"cmd":3,"data":"abcd"}`, recvFrame(t, conn))
	hub.HandlePacket(context.Background(), &wake.Packet{Command: 5})
	require.JSONEq(t, `{"cmd":5}`, recvFrame(t, conn))
}

func TestHubViewerLeaves(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	conn.Close()
	require.Eventually(t, func() bool { return hub.Viewers() == 0 },
		time.Second, 10*time.Millisecond)
	hub.HandlePacket(context.Background(), &wake.Packet{Command: 1})
}
