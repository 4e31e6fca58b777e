// Package loctek bridges a Loctek desk control box and its keypad over two
// serial links. Bytes are relayed verbatim in both directions while the
// bridge injects its own command frames toward the desk, holds the desk's
// enable line around each command, and infers motion from keypad traffic.
package loctek

import (
	"reflect"
	"sync"
	"time"

	"github.com/bxjrke/loctekbridge/internal/monitoring"
	"github.com/bxjrke/loctekbridge/internal/timeutil"
)

// Status receives the desk state the bridge causes or infers. Calls are made
// with the bridge locked; implementations must not call back into it.
type Status interface {
	SetOperation(MotionState)
	SetAwake(bool)
}

// Button is a momentary trigger, such as a UI button.
type Button interface {
	Name() string
	OnPress(func())
}

// Switch is a two-state trigger.
type Switch interface {
	Name() string
	OnStateChange(func(on bool))
}

// PresetBinding pairs a trigger with the frame it sends.
type PresetBinding struct {
	Trigger Button
	Frame   Frame
}

// Config holds a Bridge's collaborators. Desk is required.
type Config struct {
	Desk   Link
	Keypad Link
	Pin    Pin
	Status Status
	Clock  timeutil.Clock
	// Tap, if set, receives relayed traffic, e.g. Recorder.Tap.
	Tap func(Message)

	// Labels for DumpConfig.
	DeskPort   string
	KeypadPort string
	EnablePin  string
}

// Bridge is driven by Tick from one loop. Send*, Control and trigger
// callbacks may come from other goroutines; they are serialized with Tick.
type Bridge struct {
	mu sync.Mutex

	clock     timeutil.Clock
	desk      Link
	status    Status
	relay     Relay
	enable    EnableWindow
	keepAlive KeepAlive
	motion    MotionState

	labels Config

	presets    []PresetBinding
	stopButton Button
	wakeSwitch Switch
}

func New(cfg Config) *Bridge {
	b := &Bridge{
		clock:  cfg.Clock,
		desk:   cfg.Desk,
		status: cfg.Status,
		labels: Config{DeskPort: cfg.DeskPort, KeypadPort: cfg.KeypadPort, EnablePin: cfg.EnablePin},
	}
	if b.clock == nil {
		b.clock = timeutil.RealClock{}
	}
	if b.status == nil {
		b.status = nopStatus{}
	}
	pin := cfg.Pin
	if pin == nil {
		pin = nopPin{}
	}

	b.relay = Relay{
		Desk:    cfg.Desk,
		Keypad:  cfg.Keypad,
		Observe: b.observeKeypad,
		Tap:     cfg.Tap,
	}
	b.enable = EnableWindow{
		Pin:       pin,
		OnRelease: func() { b.status.SetAwake(false) },
	}
	b.keepAlive.Start(b.clock.Now())

	return b
}

// Tick relays pending bytes, releases the enable line when its hold is over
// and sends the keep-alive wake frame when due. It never blocks on I/O.
func (b *Bridge) Tick(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.relay.Pump(now)
	b.enable.Tick(now)

	if b.keepAlive.Due(now) {
		b.sendWakeUp(now)
	}
}

// SendCommand raises the enable line and writes frame to the desk. There is
// no acknowledgement.
func (b *Bridge) SendCommand(frame Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendCommand(b.clock.Now(), frame)
}

func (b *Bridge) SendUp() {
	b.mu.Lock()
	defer b.mu.Unlock()

	monitoring.Debugf("Sending UP command.")
	b.sendCommand(b.clock.Now(), FrameUp)
	b.setMotion(Opening)
}

func (b *Bridge) SendDown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	monitoring.Debugf("Sending DOWN command.")
	b.sendCommand(b.clock.Now(), FrameDown)
	b.setMotion(Closing)
}

// SendStop sends the "M" frame, which stops a moving desk.
func (b *Bridge) SendStop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	monitoring.Debugf("Sending STOP command.")
	b.sendCommand(b.clock.Now(), FrameStop)
	b.setMotion(Idle)
}

func (b *Bridge) SendWakeUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendWakeUp(b.clock.Now())
}

func (b *Bridge) sendWakeUp(now time.Time) {
	monitoring.Debugf("Sending WAKE UP command.")
	b.sendCommand(now, FrameWakeUp)
	b.status.SetAwake(true)
}

func (b *Bridge) sendCommand(now time.Time, frame Frame) {
	b.enable.Assert(now)
	monitoring.Debugf("enable line raised for command: %s", frame)

	if _, err := b.desk.Write(frame[:]); err != nil {
		monitoring.Logf("writing %s to desk: %v", frame, err)
		return
	}
	if err := b.desk.Flush(); err != nil {
		monitoring.Logf("flushing desk link: %v", err)
	}
}

func (b *Bridge) observeKeypad(c byte) {
	if s, ok := Classify(c); ok {
		b.setMotion(s)
	}
}

func (b *Bridge) setMotion(s MotionState) {
	b.motion = s
	b.status.SetOperation(s)
}

// Motion returns the last known motion state.
func (b *Bridge) Motion() MotionState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.motion
}

// EnableActive reports whether the enable line is held.
func (b *Bridge) EnableActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enable.Active()
}

// SetStopButton binds the "M" trigger to SendStop. Binding the same button
// again does not subscribe twice.
func (b *Bridge) SetStopButton(btn Button) {
	if btn == nil {
		return
	}
	b.mu.Lock()
	bound := b.stopButton != nil && sameTrigger(b.stopButton, btn)
	b.stopButton = btn
	b.mu.Unlock()

	if !bound {
		btn.OnPress(b.SendStop)
	}
}

// SetWakeSwitch sends the wake frame whenever sw is turned on. Turning it off
// does nothing; the awake status drops on its own when the enable line is
// released.
func (b *Bridge) SetWakeSwitch(sw Switch) {
	if sw == nil {
		return
	}
	b.mu.Lock()
	bound := b.wakeSwitch != nil && sameTrigger(b.wakeSwitch, sw)
	b.wakeSwitch = sw
	b.mu.Unlock()

	if bound {
		return
	}
	sw.OnStateChange(func(on bool) {
		if on {
			b.SendWakeUp()
		}
	})
}

// RegisterPreset binds trigger to frame. Registering the same trigger again
// replaces its frame. A nil trigger or zero frame is ignored.
func (b *Bridge) RegisterPreset(trigger Button, frame Frame) {
	if trigger == nil || frame.IsZero() {
		monitoring.Debugf("ignoring incomplete preset registration")
		return
	}

	if !b.bindPreset(trigger, frame) {
		return
	}
	trigger.OnPress(func() { b.pressPreset(trigger) })
}

// bindPreset stores the binding and reports whether trigger is new.
func (b *Bridge) bindPreset(trigger Button, frame Frame) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.presets {
		if sameTrigger(b.presets[i].Trigger, trigger) {
			b.presets[i].Frame = frame
			return false
		}
	}
	b.presets = append(b.presets, PresetBinding{Trigger: trigger, Frame: frame})
	return true
}

func (b *Bridge) pressPreset(trigger Button) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.presets {
		if sameTrigger(p.Trigger, trigger) {
			monitoring.Debugf("Sending preset %s.", trigger.Name())
			b.sendCommand(b.clock.Now(), p.Frame)
			return
		}
	}
}

// sameTrigger reports whether a and c are the same trigger. Triggers are
// compared by identity; when their dynamic type is not comparable, by name.
func sameTrigger(a, c interface{ Name() string }) (same bool) {
	if reflect.TypeOf(a) != reflect.TypeOf(c) {
		return false
	}
	defer func() {
		if recover() != nil {
			same = a.Name() == c.Name()
		}
	}()
	return a == c
}

// Presets returns the registered bindings in registration order.
func (b *Bridge) Presets() []PresetBinding {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]PresetBinding(nil), b.presets...)
}

type nopStatus struct{}

func (nopStatus) SetOperation(MotionState) {}
func (nopStatus) SetAwake(bool)            {}

type nopPin struct{}

func (nopPin) Assert()   {}
func (nopPin) Deassert() {}
