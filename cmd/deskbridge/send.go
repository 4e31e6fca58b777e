package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	loctek "github.com/bxjrke/loctekbridge"
	"github.com/bxjrke/loctekbridge/internal/timeutil"
)

// releaseTimeout bounds how long send waits for the enable line to drop.
var releaseTimeout = 3 * loctek.EnableHold

func sendCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "send COMMAND",
		Short: "Send one frame to the desk: up, down, stop, wake, preset1-4, sit, stand or 8 hex bytes",
		Args:  cobra.ExactArgs(1),
		RunE:  send,
	}
	addDeskFlags(cmd.Flags())

	return &cmd
}

func send(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	desk, port, err := openEndpoint("desk", cfg.Desk)
	if err != nil {
		return err
	}
	defer port.Close()

	pin, err := openPin(cfg)
	if err != nil {
		return err
	}

	clock := timeutil.RealClock{}
	b := loctek.New(loctek.Config{Desk: desk, Pin: pin, Clock: clock})

	frame, err := sendNamed(b, args[0])
	if err != nil {
		return err
	}
	log.Printf("> % 02X", frame[:])

	return waitRelease(b, clock, 10*time.Millisecond)
}

// sendNamed sends the command named by arg and returns the frame written.
// Motion commands go through the bridge's motion-aware senders.
func sendNamed(b *loctek.Bridge, arg string) (loctek.Frame, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "up":
		b.SendUp()
		return loctek.FrameUp, nil
	case "down":
		b.SendDown()
		return loctek.FrameDown, nil
	case "stop", "m":
		b.SendStop()
		return loctek.FrameStop, nil
	case "wake":
		b.SendWakeUp()
		return loctek.FrameWakeUp, nil
	}

	frame, ok := loctek.Lookup(arg)
	if !ok {
		var err error
		if frame, err = loctek.ParseFrame(arg); err != nil {
			return frame, fmt.Errorf("unknown command %q: %w", arg, err)
		}
	}

	b.SendCommand(frame)
	return frame, nil
}

// waitRelease ticks the bridge until the enable line drops.
func waitRelease(b *loctek.Bridge, clock timeutil.Clock, poll time.Duration) error {
	start := clock.Now()
	ticker := clock.NewTicker(poll)
	defer ticker.Stop()

	for b.EnableActive() {
		now := <-ticker.C()
		b.Tick(now)
		if clock.Since(start) > releaseTimeout {
			return fmt.Errorf("enable line still held after %s", releaseTimeout)
		}
	}
	return nil
}
