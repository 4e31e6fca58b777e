// Package httpapi exposes the desk's buttons, wake switch and cover state
// over HTTP so a home automation front end can drive the bridge.
package httpapi

import (
	"sync"

	loctek "github.com/bxjrke/loctekbridge"
)

// Button is a virtual push button. Pressing it runs every OnPress handler.
type Button struct {
	name string

	mu       sync.Mutex
	handlers []func()
}

func NewButton(name string) *Button {
	return &Button{name: name}
}

func (b *Button) Name() string { return b.name }

func (b *Button) OnPress(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

// Press runs the handlers in registration order.
func (b *Button) Press() {
	b.mu.Lock()
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Switch is a virtual on/off switch. Set is a user action and notifies
// handlers; Publish only updates the displayed state.
type Switch struct {
	name string

	mu       sync.Mutex
	on       bool
	handlers []func(bool)
}

func NewSwitch(name string) *Switch {
	return &Switch{name: name}
}

func (s *Switch) Name() string { return s.name }

func (s *Switch) OnStateChange(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

func (s *Switch) Set(on bool) {
	s.mu.Lock()
	s.on = on
	handlers := append([]func(bool){}, s.handlers...)
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(on)
	}
}

func (s *Switch) Publish(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on = on
}

func (s *Switch) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Board keeps the latest desk status for the state endpoint. It implements
// loctek.Status.
type Board struct {
	// Wake, if set, mirrors the awake status.
	Wake *Switch

	mu        sync.Mutex
	operation loctek.MotionState
	awake     bool
}

func (b *Board) SetOperation(m loctek.MotionState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.operation = m
}

func (b *Board) SetAwake(on bool) {
	b.mu.Lock()
	b.awake = on
	b.mu.Unlock()

	if b.Wake != nil {
		b.Wake.Publish(on)
	}
}

// Snapshot returns the current operation and awake status.
func (b *Board) Snapshot() (loctek.MotionState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.operation, b.awake
}
