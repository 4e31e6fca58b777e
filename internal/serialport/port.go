// Package serialport opens the desk and keypad serial links behind one small
// interface, using go.bug.st/serial by default or github.com/tarm/serial.
package serialport

import (
	"errors"
	"fmt"
	"io"

	bugst "go.bug.st/serial"
	tarm "github.com/tarm/serial"
)

// Port is the subset of a serial port the bridge uses. Read returns (0, nil)
// when the read timeout expires with no data.
type Port interface {
	io.ReadWriteCloser
	// Drain blocks until everything written has been transmitted.
	Drain() error
}

// Opener is a function type for opening serial ports, replaceable in tests.
type Opener func(path string, opts Options) (Port, error)

// Open opens the serial device at path with the configured driver.
func Open(path string, opts Options) (Port, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	switch opts.Driver {
	case DriverTarm:
		return openTarm(path, opts)
	default:
		return openBugst(path, opts)
	}
}

func openBugst(path string, opts Options) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := bugst.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", path, err)
	}

	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("setting read timeout on %s: %w", path, err)
	}

	return port, nil
}

func openTarm(path string, opts Options) (Port, error) {
	cfg, err := opts.TarmConfig(path)
	if err != nil {
		return nil, err
	}

	port, err := tarm.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", path, err)
	}

	return &tarmPort{port: port}, nil
}

// tarmPort adapts *tarm.Port. tarm reports an expired read timeout as io.EOF
// and writes straight to the descriptor, so there is nothing to drain.
type tarmPort struct {
	port *tarm.Port
}

func (p *tarmPort) Read(bs []byte) (int, error) {
	n, err := p.port.Read(bs)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(bs []byte) (int, error) { return p.port.Write(bs) }
func (p *tarmPort) Close() error                 { return p.port.Close() }
func (p *tarmPort) Drain() error                 { return nil }
