package serialport

import (
	"fmt"
	"strings"
	"time"

	bugst "go.bug.st/serial"
	tarm "github.com/tarm/serial"
)

// Driver names accepted in Options.Driver.
const (
	DriverBugst = "bugst"
	DriverTarm  = "tarm"
)

// DefaultReadTimeout bounds each blocking Read so reader goroutines notice
// cancellation.
const DefaultReadTimeout = 100 * time.Millisecond

// Options describes the serial connection parameters used when opening one of
// the bridge's ports. Loctek control boxes and keypads talk 9600 8N1.
type Options struct {
	Driver      string        `json:"driver,omitempty"`
	BaudRate    int           `json:"baud_rate,omitempty"`
	DataBits    int           `json:"data_bits,omitempty"`
	StopBits    int           `json:"stop_bits,omitempty"`
	Parity      string        `json:"parity,omitempty"`
	ReadTimeout time.Duration `json:"-"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	driver := strings.TrimSpace(strings.ToLower(opts.Driver))
	switch driver {
	case "":
		driver = DriverBugst
	case DriverBugst, DriverTarm:
	default:
		return opts, fmt.Errorf("unsupported driver %q: expected %s or %s", opts.Driver, DriverBugst, DriverTarm)
	}
	opts.Driver = driver

	if opts.BaudRate <= 0 {
		opts.BaudRate = 9600
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	return opts, nil
}

// SerialMode converts the options into the structure go.bug.st/serial needs.
func (o Options) SerialMode() (*bugst.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &bugst.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: bugst.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}

	switch opts.Parity {
	case "N":
		mode.Parity = bugst.NoParity
	case "E":
		mode.Parity = bugst.EvenParity
	case "O":
		mode.Parity = bugst.OddParity
	}

	return mode, nil
}

// TarmConfig converts the options into a github.com/tarm/serial config for
// the named device.
func (o Options) TarmConfig(path string) (*tarm.Config, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	return &tarm.Config{
		Name:        path,
		Baud:        opts.BaudRate,
		Size:        byte(opts.DataBits),
		Parity:      tarm.Parity(opts.Parity[0]),
		StopBits:    tarm.StopBits(opts.StopBits),
		ReadTimeout: opts.ReadTimeout,
	}, nil
}
