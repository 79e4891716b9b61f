package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wake.go/pkg/cli/sh"
	"github.com/robotalks/wake.go/pkg/shield"
)

var (
	// InfoCmd queries the firmware identification string.
	InfoCmd = ishell.Cmd{
		Name:    "relay.info",
		Aliases: []string{"info"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			ctx, cancel := sh.CommandContext(c)
			defer cancel()
			info, err := shield.New(s.Session.Client).Info(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out, err := json.Marshal(&struct {
					Info string `json:"info"`
				}{Info: info})
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Println(info)
		}),
	}

	// SetCmd switches one relay into a mode.
	SetCmd = ishell.Cmd{
		Name:    "relay.set",
		Aliases: []string{"rs"},
		Help:    "RELAY MODE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("RELAY and MODE required"))
				return
			}
			relay, err := strconv.ParseUint(c.Args[0], 10, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid RELAY: %v", err))
				return
			}
			mode, err := strconv.ParseUint(c.Args[1], 10, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid MODE: %v", err))
				return
			}
			s := sh.ShellFrom(c)
			ctx, cancel := sh.CommandContext(c)
			defer cancel()
			if err := shield.New(s.Session.Client).SetRelay(ctx, byte(relay), byte(mode)); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// CycleCmd steps relays through their modes.
	CycleCmd = ishell.Cmd{
		Name:    "relay.cycle",
		Aliases: []string{"rc"},
		Help:    "[STEPS [INTERVAL]]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			steps := int(shield.RelayCount) * int(shield.ModeCount)
			interval := 500 * time.Millisecond
			if len(c.Args) > 0 {
				val, err := strconv.Atoi(c.Args[0])
				if err != nil || val <= 0 {
					c.Err(fmt.Errorf("invalid STEPS: %s", c.Args[0]))
					return
				}
				steps = val
			}
			if len(c.Args) > 1 {
				val, err := time.ParseDuration(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("invalid INTERVAL: %v", err))
					return
				}
				interval = val
			}
			s := sh.ShellFrom(c)
			ctx, cancel := context.WithCancel(s.Session.Ctx)
			defer cancel()
			n := 0
			err := shield.New(s.Session.Client).Cycle(ctx, interval, func(relay, mode byte) {
				c.Printf("relay %d mode %d\n", relay, mode)
				if n++; n >= steps {
					cancel()
				}
			})
			if err != nil && err != context.Canceled {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&InfoCmd,
		&SetCmd,
		&CycleCmd,
	)
}
