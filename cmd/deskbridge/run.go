package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	loctek "github.com/bxjrke/loctekbridge"
	"github.com/bxjrke/loctekbridge/internal/config"
	"github.com/bxjrke/loctekbridge/internal/httpapi"
	"github.com/bxjrke/loctekbridge/internal/monitoring"
	"github.com/bxjrke/loctekbridge/internal/serialport"
	"github.com/bxjrke/loctekbridge/internal/timeutil"
)

var (
	keypadPath   = ""
	tickInterval = config.DefaultTickInterval
	listenAddr   = ""
	recordPath   = ""
	mButton      = "M"
	wakeSwitch   = "Wake Up"
	presetFlags  []string
)

func runCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "run",
		Short: "Relay between desk and keypad and accept commands",
		Args:  cobra.ExactArgs(0),
		RunE:  run,
	}
	addDeskFlags(cmd.Flags())
	cmd.Flags().StringVar(&keypadPath, "keypad", keypadPath, "Serial device wired to the keypad (optional)")
	cmd.Flags().DurationVar(&tickInterval, "tick", tickInterval, "Polling interval of the relay loop")
	cmd.Flags().StringVar(&listenAddr, "listen", listenAddr, "HTTP listen address for the control API, e.g. :8080")
	cmd.Flags().StringVar(&recordPath, "record", recordPath, "Write relayed traffic to this file")
	cmd.Flags().StringVar(&mButton, "m-button", mButton, "Name of the stop (M) button")
	cmd.Flags().StringVar(&wakeSwitch, "wake-switch", wakeSwitch, "Name of the wake up switch")
	cmd.Flags().StringArrayVar(&presetFlags, "preset", nil, "Preset button as NAME=HEX, up to 4")

	return &cmd
}

func listenStop() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx
}

func run(_ *cobra.Command, args []string) error {
	presets, err := parsePresetFlags(presetFlags)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(func(c *config.Config) {
		if keypadPath != "" {
			c.Keypad = &config.Port{Path: keypadPath, Serial: c.Desk.Serial}
		}
		c.TickInterval = tickInterval.String()
		c.Listen = listenAddr
		c.Record = recordPath
		c.MButton = mButton
		c.WakeSwitch = wakeSwitch
		c.Presets = presets
	})
	if err != nil {
		return err
	}

	ctx := listenStop()

	desk, deskPort, err := openEndpoint("desk", cfg.Desk)
	if err != nil {
		return err
	}
	defer deskPort.Close()

	var keypad *loctek.Endpoint
	if cfg.Keypad != nil {
		var keypadPort serialport.Port
		keypad, keypadPort, err = openEndpoint("keypad", *cfg.Keypad)
		if err != nil {
			return err
		}
		defer keypadPort.Close()
	}

	pin, err := openPin(cfg)
	if err != nil {
		return err
	}

	bcfg := loctek.Config{
		Desk:      desk,
		Pin:       pin,
		DeskPort:  cfg.Desk.Path,
		EnablePin: pinLabel(cfg),
	}
	if keypad != nil {
		bcfg.Keypad = keypad
		bcfg.KeypadPort = cfg.Keypad.Path
	}

	if cfg.Record != "" {
		f, err := os.Create(cfg.Record)
		if err != nil {
			return fmt.Errorf("creating capture file: %w", err)
		}
		defer f.Close()

		rec := &loctek.Recorder{Dest: f}
		bcfg.Tap = rec.Tap(monitoring.Logf)
	}

	wake := httpapi.NewSwitch(cfg.WakeSwitch)
	board := &httpapi.Board{Wake: wake}
	bcfg.Status = board

	bridge := loctek.New(bcfg)

	var buttons []*httpapi.Button
	if cfg.MButton != "" {
		m := httpapi.NewButton(cfg.MButton)
		bridge.SetStopButton(m)
		buttons = append(buttons, m)
	}
	if cfg.WakeSwitch != "" {
		bridge.SetWakeSwitch(wake)
	}

	frames, err := cfg.PresetFrames()
	if err != nil {
		return err
	}
	for i, p := range cfg.Presets {
		b := httpapi.NewButton(p.Name)
		bridge.RegisterPreset(b, frames[i])
		buttons = append(buttons, b)
	}

	bridge.DumpConfig(monitoring.Logf)

	interval, err := cfg.Tick()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return desk.Consume(ctx) })
	if keypad != nil {
		g.Go(func() error { return keypad.Consume(ctx) })
	}
	g.Go(func() error { return tickLoop(ctx, bridge, timeutil.RealClock{}, interval) })

	if cfg.Listen != "" {
		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: (&httpapi.Server{Desk: bridge, Board: board, Wake: wake, Buttons: buttons}).Routes(),
		}
		g.Go(func() error {
			log.Printf("control API listening on %s", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving control API: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("sd_notify: %v", err)
	}

	err = g.Wait()

	daemon.SdNotify(false, daemon.SdNotifyStopping)
	pin.Deassert()

	return err
}

// tickLoop drives the bridge until ctx is done.
func tickLoop(ctx context.Context, b *loctek.Bridge, clock timeutil.Clock, interval time.Duration) error {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C():
			b.Tick(now)
		}
	}
}
