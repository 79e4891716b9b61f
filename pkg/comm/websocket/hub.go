// Package websocket serves link traffic to websocket viewers, so a
// browser can watch a wake stream live.
package websocket

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/wake.go/pkg/wake"
)

// Frame is the JSON form of one decoded packet.
type Frame struct {
	Addr *byte  `json:"addr,omitempty"`
	Cmd  byte   `json:"cmd"`
	Data string `json:"data,omitempty"`
}

// Hub broadcasts decoded packets to connected viewers.
type Hub struct {
	lock    sync.Mutex
	viewers map[*websocket.Conn]chan string
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{viewers: make(map[*websocket.Conn]chan string)}
}

// Viewers reports the number of connected viewers.
func (h *Hub) Viewers() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.viewers)
}

// HandlePacket implements comm.PacketHandler by fanning the packet
// out to every viewer. A lagging viewer loses frames instead of
// stalling the link.
func (h *Hub) HandlePacket(_ context.Context, pkt *wake.Packet) {
	out, err := json.Marshal(&Frame{
		Addr: pkt.Address,
		Cmd:  pkt.Command,
		Data: hex.EncodeToString(pkt.Data),
	})
	if err != nil {
		return
	}
	msg := string(out)
	h.lock.Lock()
	for conn, ch := range h.viewers {
		select {
		case ch <- msg:
		default:
			glog.V(1).Infof("viewer %s lagging, frame dropped", conn.Request().RemoteAddr)
		}
	}
	h.lock.Unlock()
}

// Handler returns the http handler accepting viewer connections.
func (h *Hub) Handler() websocket.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	ch := make(chan string, 64)
	h.lock.Lock()
	h.viewers[conn] = ch
	h.lock.Unlock()
	glog.Infof("viewer connected: %s", conn.Request().RemoteAddr)
	defer func() {
		h.lock.Lock()
		delete(h.viewers, conn)
		h.lock.Unlock()
		glog.Infof("viewer left: %s", conn.Request().RemoteAddr)
	}()

	closeCh := make(chan struct{})
	go func() {
		// Viewers send nothing. Receive returns when the peer goes
		// away.
		var discard []byte
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				close(closeCh)
				return
			}
		}
	}()
	for {
		select {
		case msg := <-ch:
			if err := websocket.Message.Send(conn, msg); err != nil {
				return
			}
		case <-closeCh:
			return
		}
	}
}
