package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	loctek "github.com/bxjrke/loctekbridge"
)

// messageGap splits consecutive captures in one direction into separate lines.
var messageGap = 5 * time.Millisecond

func dump(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()

	msgs := make(chan loctek.Message, 100)

	var g errgroup.Group
	g.Go(func() error { return processMsgs(os.Stdout, msgs) })
	g.Go(func() error { return loctek.ReadIn(msgs, f) })

	return g.Wait()
}

// processMsgs prints msgs to w. It always consumes msgs to the end so the
// producer is never left blocked.
func processMsgs(w io.Writer, msgs <-chan loctek.Message) error {
	defer func() {
		for range msgs {
		}
	}()

	var (
		session           uuid.UUID
		dir               loctek.Direction
		lastMsg, lastRead time.Time
		thisMsg           bytes.Buffer
	)

	flush := func() error {
		if thisMsg.Len() == 0 {
			return nil
		}
		bs := thisMsg.Bytes()
		_, err := fmt.Fprintf(w, "%s %-11s % 02X%s\n", lastMsg.Format("15:04:05.000"), dir, bs, render(bs))
		thisMsg.Reset()
		return err
	}

	for msg := range msgs {
		if msg.Session != session {
			if err := flush(); err != nil {
				return err
			}
			session = msg.Session
			if _, err := fmt.Fprintf(w, "session %s\n", session); err != nil {
				return err
			}
			lastMsg = time.Time{}
		}

		if !lastMsg.IsZero() && (msg.Direction != dir || msg.Timestamp.Sub(lastRead) > messageGap) {
			if err := flush(); err != nil {
				return err
			}
			lastMsg = time.Time{}
		}

		dir = msg.Direction
		lastRead = msg.Timestamp
		if lastMsg.IsZero() {
			lastMsg = lastRead
		}

		thisMsg.Write(msg.Data)
	}

	return flush()
}

// render names catalog frames.
func render(bs []byte) string {
	f, err := loctek.FrameFromBytes(bs)
	if err != nil {
		return ""
	}
	if name := f.Name(); name != "" {
		return "  " + name
	}
	return ""
}
