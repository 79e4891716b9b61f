package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wake.go/pkg/comm"
	"github.com/robotalks/wake.go/pkg/comm/serial"
	"github.com/robotalks/wake.go/pkg/wake"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell   *ishell.Shell
	Config  *serial.Config
	Session *Session
}

// Session is an open connection to a wake device.
type Session struct {
	Ctx    context.Context
	Cancel func()
	Device string
	Port   serial.Porter
	Link   *comm.Link
	Client *comm.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	cmdTimeout = time.Second

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&cmdTimeout, "timeout", cmdTimeout, "Reply wait timeout.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *serial.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command func which requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// CommandContext derives a context bounded by the reply timeout.
// It requires a connected session.
func CommandContext(c *ishell.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ShellFrom(c).Session.Ctx, cmdTimeout)
}

// DoCommand sends a packet, waits for the reply and reports errors to
// the shell.
func DoCommand(c *ishell.Context, pkt *wake.Packet, sizeWant int) (comm.Result, error) {
	s := ShellFrom(c)
	if s.Session == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return comm.Result{}, err
	}
	ctx, cancel := CommandContext(c)
	defer cancel()
	res := s.Session.Client.Do(pkt, sizeWant).Wait(ctx)
	if res.Err != nil {
		c.Err(res.Err)
	}
	return res, res.Err
}

// PrintResult prints a reply honoring the -json flag.
func PrintResult(c *ishell.Context, res comm.Result) {
	s := ShellFrom(c)
	if s.OutputJSON {
		out, err := json.Marshal(&struct {
			Code byte   `json:"code"`
			Data []byte `json:"data,omitempty"`
		}{Code: res.Code, Data: res.Data})
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if len(res.Data) == 0 {
		c.Println("OK")
		return
	}
	c.Printf("% x\n", res.Data)
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens a device and starts a client session over it.
// An empty device uses the configured one.
func (s *Shell) Connect(device string) error {
	conf := *s.Config
	if device != "" {
		conf.Device = device
	}
	port, err := conf.Open()
	if err != nil {
		return err
	}
	sess := &Session{Device: conf.Device, Port: port}
	sess.Ctx, sess.Cancel = context.WithCancel(context.Background())
	sess.Link = serial.WrapLink(port)
	sess.Client = comm.NewClient(sess.Link)
	s.Disconnect()
	s.Session = sess
	go sess.Client.Run(sess.Ctx)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", conf.Device))
	return nil
}

// Disconnect closes the current session.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Cancel()
		s.Session.Port.Close()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Device != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Device)
		}
		if err := s.Connect(""); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Device, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial devices on the system.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ports, err := serial.List()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if ports == nil {
					// in case ports is nil, make it empty slice.
					ports = []string{}
				}
				out, err := json.Marshal(ports)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(ports) == 0 {
				c.Println("No serial devices found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// ConnectCmd opens a serial device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var device string
			if len(c.Args) > 0 {
				device = c.Args[0]
			} else if s.Config.Device == "" {
				ports, err := serial.List()
				if err != nil {
					c.Err(err)
					return
				}
				switch len(ports) {
				case 0:
					c.Err(fmt.Errorf("no serial devices found"))
					return
				case 1:
					device = ports[0]
				default:
					if !s.Interactive {
						c.Err(fmt.Errorf("more than 1 devices found in non-interactive mode"))
						return
					}
					device = ports[s.Shell.MultiChoice(ports, "Which device to connect?")]
				}
			}
			if err := s.Connect(device); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the current session.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(serial.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
