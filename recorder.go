package loctek

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is a run of bytes relayed in one direction during one tick.
type Message struct {
	Session   uuid.UUID
	Direction Direction
	Data      []byte
	Timestamp time.Time
}

// Recorder writes relayed traffic to Dest as a gob stream. Every message
// carries the recorder's session id so captures can be told apart.
type Recorder struct {
	Dest    io.Writer
	Session uuid.UUID

	enc  *gob.Encoder
	once sync.Once
	mu   sync.Mutex
}

func (r *Recorder) Receive(msg Message) error {
	r.init()

	r.mu.Lock()
	defer r.mu.Unlock()

	msg.Session = r.Session
	return r.enc.Encode(msg)
}

// Tap adapts the recorder to Relay.Tap, logging encode failures.
func (r *Recorder) Tap(logf func(string, ...interface{})) func(Message) {
	return func(msg Message) {
		if err := r.Receive(msg); err != nil {
			logf("recorder: %v", err)
		}
	}
}

func (r *Recorder) init() {
	r.once.Do(func() {
		if r.Session == uuid.Nil {
			r.Session = uuid.New()
		}
		r.enc = gob.NewEncoder(r.Dest)
	})
}

func ReadIn(out chan<- Message, r io.Reader) error {
	defer close(out)

	dec := gob.NewDecoder(r)

	for {
		var msg Message
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("while decoding: %w", err)
		}

		out <- msg
	}
}
