package device

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wake.go/pkg/cli/sh"
	"github.com/robotalks/wake.go/pkg/comm"
	"github.com/robotalks/wake.go/pkg/wake"
)

func parsePacket(c *ishell.Context) (*wake.Packet, bool) {
	var pkt wake.Packet
	code := c.Args[0]
	if i := strings.IndexByte(code, ':'); i >= 0 {
		addr, err := strconv.ParseUint(code[:i], 16, 8)
		if err != nil || addr > uint64(wake.MaxAddress) {
			c.Err(fmt.Errorf("invalid ADDR: %s", code[:i]))
			return nil, false
		}
		pkt.Address = wake.Addr(byte(addr))
		code = code[i+1:]
	}
	cmd, err := strconv.ParseUint(code, 16, 8)
	if err != nil || cmd > uint64(wake.MaxCommand) {
		c.Err(fmt.Errorf("invalid CMD: %s", code))
		return nil, false
	}
	pkt.Command = byte(cmd)
	if len(c.Args) > 1 {
		data, err := hex.DecodeString(c.Args[1])
		if err != nil {
			c.Err(fmt.Errorf("invalid DATA: %v", err))
			return nil, false
		}
		pkt.Data = data
	}
	return &pkt, true
}

func formatPacket(pkt *wake.Packet) string {
	var w strings.Builder
	if pkt.Address != nil {
		fmt.Fprintf(&w, "@%02x ", *pkt.Address)
	}
	fmt.Fprintf(&w, "cmd %02x", pkt.Command)
	if len(pkt.Data) > 0 {
		fmt.Fprintf(&w, " data % x", pkt.Data)
	}
	return w.String()
}

var (
	// SendCmd sends a raw packet and prints the reply.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "[ADDR:]CMD [DATA]  (hex)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CMD required"))
				return
			}
			pkt, ok := parsePacket(c)
			if !ok {
				return
			}
			res, err := sh.DoCommand(c, pkt, comm.NoCheckRxSize)
			if err != nil {
				return
			}
			sh.PrintResult(c, res)
		}),
	}

	// WatchCmd prints unsolicited packets for a while.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			d := 10 * time.Second
			if len(c.Args) > 0 {
				val, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %v", err))
					return
				}
				d = val
			}
			ctx, cancel := context.WithTimeout(s.Session.Ctx, d)
			defer cancel()
			events := s.Session.Client.EventChan()
			for {
				select {
				case pkt := <-events:
					c.Println(formatPacket(pkt))
				case <-ctx.Done():
					return
				}
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&SendCmd,
		&WatchCmd,
	)
}
