package serial

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	goserial "go.bug.st/serial"

	"github.com/robotalks/wake.go/pkg/comm"
)

// Porter is the io surface a Link needs from an opened port.
// goserial.Port satisfies it, and tests substitute in-memory fakes.
type Porter interface {
	io.ReadWriteCloser
}

// Config selects and configures the serial device.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0.
	Device string
	// Baud is the line rate. The framing is fixed at 8N1.
	Baud int
}

var defaultConfig = Config{
	Baud: 115200,
}

func init() {
	if val := os.Getenv("WAKE_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("WAKE_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.Baud = baud
		}
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial device of the wake peer.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ReadTimeout is the poll interval Open configures on the port, so a
// link can notice idle gaps between bytes.
const ReadTimeout = 100 * time.Millisecond

// Open opens the configured device in 8N1 mode with ReadTimeout set.
func (c *Config) Open() (goserial.Port, error) {
	if c.Device == "" {
		return nil, fmt.Errorf("serial device must be specified")
	}
	mode := &goserial.Mode{
		BaudRate: c.Baud,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(c.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", c.Device, err)
	}
	if err = port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// MustOpen opens the device or fails.
func (c *Config) MustOpen() goserial.Port {
	port, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return port
}

// WrapLink wraps an opened port in a link running in read timeout
// mode.
func WrapLink(port Porter) *comm.Link {
	link := comm.NewLink(port)
	link.ReadTimeout = true
	return link
}

// NewLink opens the device and wraps it in a link.
func (c *Config) NewLink() (*comm.Link, error) {
	port, err := c.Open()
	if err != nil {
		return nil, err
	}
	return WrapLink(port), nil
}

// List enumerates serial devices present on the system.
func List() ([]string, error) {
	return goserial.GetPortsList()
}
