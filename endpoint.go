package loctek

import (
	"context"
	"fmt"
	"io"
)

// QueueSize bounds the bytes an Endpoint holds between ticks. When it fills
// the reader stops pulling from the port and the kernel buffer takes over.
const QueueSize = 4096

// Port is the serial device behind an Endpoint.
type Port interface {
	io.ReadWriter
	Drain() error
}

// Endpoint turns a blocking serial port into a Link: Consume reads the port
// in the background and ReadByte hands bytes to the tick loop without
// blocking.
type Endpoint struct {
	Name string
	Port Port
	// OnReceive, if set, sees every chunk read from the port before it is
	// queued.
	OnReceive func([]byte)

	queue chan byte
}

func NewEndpoint(name string, port Port) *Endpoint {
	return &Endpoint{
		Name:  name,
		Port:  port,
		queue: make(chan byte, QueueSize),
	}
}

// Consume reads from the port until ctx is done or a read fails.
func (e *Endpoint) Consume(ctx context.Context) error {
	bs := make([]byte, 64)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := e.Port.Read(bs)
		if err != nil {
			return fmt.Errorf("reading from %s: %w", e.Name, err)
		}

		if n == 0 {
			continue
		}

		if e.OnReceive != nil {
			e.OnReceive(bs[:n])
		}

		for _, b := range bs[:n] {
			select {
			case e.queue <- b:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Buffered returns the number of bytes waiting.
func (e *Endpoint) Buffered() int {
	return len(e.queue)
}

// ReadByte returns the next received byte or ErrNoData.
func (e *Endpoint) ReadByte() (byte, error) {
	select {
	case b := <-e.queue:
		return b, nil
	default:
		return 0, ErrNoData
	}
}

func (e *Endpoint) WriteByte(b byte) error {
	_, err := e.Port.Write([]byte{b})
	return err
}

func (e *Endpoint) Write(p []byte) (int, error) {
	return e.Port.Write(p)
}

// Flush waits for the port to transmit everything written so far.
func (e *Endpoint) Flush() error {
	return e.Port.Drain()
}
