package loctek

import (
	"errors"
	"time"

	"github.com/bxjrke/loctekbridge/internal/monitoring"
)

// ErrNoData is returned by Link.ReadByte when nothing is waiting.
var ErrNoData = errors.New("no data available")

// Link is one serial endpoint as seen from the tick loop. ReadByte must not
// block.
type Link interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
	Write(p []byte) (int, error)
	Flush() error
}

// Direction names which way bytes travelled through the bridge.
type Direction int

const (
	DeskToKeypad Direction = iota
	KeypadToDesk
)

func (d Direction) String() string {
	if d == KeypadToDesk {
		return "keypad>desk"
	}
	return "desk>keypad"
}

// Relay forwards bytes between the desk and the keypad one at a time, in the
// order they arrive.
type Relay struct {
	Desk   Link
	Keypad Link

	// Observe is called with each keypad byte after it has been forwarded.
	Observe func(b byte)
	// Tap, if set, receives the bytes relayed in each direction per Pump.
	Tap func(Message)
}

// Pump drains whatever is waiting on both links and returns the number of
// bytes moved. A nil Keypad still drains the desk side.
func (r *Relay) Pump(now time.Time) int {
	n := r.pump(now, DeskToKeypad, r.Desk, r.Keypad, nil)
	if r.Keypad != nil {
		n += r.pump(now, KeypadToDesk, r.Keypad, r.Desk, r.Observe)
	}
	return n
}

func (r *Relay) pump(now time.Time, dir Direction, from, to Link, observe func(byte)) int {
	var seen []byte
	n := 0
	for {
		b, err := from.ReadByte()
		if errors.Is(err, ErrNoData) {
			break
		}
		if err != nil {
			monitoring.Logf("relay %s: read: %v", dir, err)
			break
		}

		n++
		if to != nil {
			if err := to.WriteByte(b); err != nil {
				monitoring.Logf("relay %s: write %02X: %v", dir, b, err)
			}
		}
		monitoring.Debugf("%s %02X", dir, b)
		if observe != nil {
			observe(b)
		}
		if r.Tap != nil {
			seen = append(seen, b)
		}
	}

	if len(seen) > 0 {
		r.Tap(Message{Direction: dir, Data: seen, Timestamp: now})
	}
	return n
}
