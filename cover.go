package loctek

import (
	"strings"

	"github.com/bxjrke/loctekbridge/internal/monitoring"
)

// CoverCall is a request from a cover-style UI: stop, or move to a position
// where 1 is fully up and 0 is fully down.
type CoverCall struct {
	Stop     bool
	Position *float64
}

// CoverTraits describes what Control can do.
type CoverTraits struct {
	SupportsPosition bool `json:"supports_position"`
	SupportsTilt     bool `json:"supports_tilt"`
	HasStop          bool `json:"has_stop"`
}

// Traits reports that the desk can only be moved up, down or stopped.
func (b *Bridge) Traits() CoverTraits {
	return CoverTraits{HasStop: true}
}

// Control maps a cover request onto desk commands. Intermediate positions
// are not supported; use presets to reach a height.
func (b *Bridge) Control(call CoverCall) {
	switch {
	case call.Stop:
		b.SendStop()
	case call.Position == nil:
	case *call.Position == 1:
		b.SendUp()
	case *call.Position == 0:
		b.SendDown()
	default:
		monitoring.Logf("Direct position setting (%.2f) is not supported and would overshoot. Use presets for accuracy.", *call.Position)
	}
}

// DumpConfig logs the bridge's triggers and preset frames.
func (b *Bridge) DumpConfig(logf func(string, ...interface{})) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logf("Loctek passthrough bridge:")
	logf("  Desk UART: %s", orUnset(b.labels.DeskPort))
	if b.relay.Keypad != nil {
		logf("  Keypad UART: %s", orUnset(b.labels.KeypadPort))
	} else {
		logf("  Keypad UART: none")
	}
	logf("  PIN 20: %s", orUnset(b.labels.EnablePin))
	if b.stopButton != nil {
		logf("  M Button: %s", b.stopButton.Name())
	}
	if b.wakeSwitch != nil {
		logf("  Wake Up Switch: %s", b.wakeSwitch.Name())
	}
	for _, p := range b.presets {
		logf("  Preset Button: %s (Command: %s)", p.Trigger.Name(), strings.ToUpper(p.Frame.String()))
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
