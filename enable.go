package loctek

import (
	"time"

	"github.com/bxjrke/loctekbridge/internal/monitoring"
)

// EnableHold is how long the enable line stays high after a transmission.
const EnableHold = 1000 * time.Millisecond

// Pin is a digital output. Implementations handle their own write errors.
type Pin interface {
	Assert()
	Deassert()
}

// EnableWindow holds the desk's enable line high for EnableHold after the
// most recent transmission.
type EnableWindow struct {
	Pin  Pin
	Hold time.Duration
	// OnRelease, if set, is called after the line drops.
	OnRelease func()

	active    bool
	startedAt time.Time
}

// Assert raises the line and (re)starts the hold timer.
func (w *EnableWindow) Assert(now time.Time) {
	w.Pin.Assert()
	w.active = true
	w.startedAt = now
}

// Tick drops the line once more than the hold time has passed since the last
// Assert.
func (w *EnableWindow) Tick(now time.Time) {
	if !w.active || now.Sub(w.startedAt) <= w.hold() {
		return
	}

	w.Pin.Deassert()
	w.active = false
	monitoring.Debugf("enable line released")

	if w.OnRelease != nil {
		w.OnRelease()
	}
}

// Active reports whether the line is currently held.
func (w *EnableWindow) Active() bool {
	return w.active
}

func (w *EnableWindow) hold() time.Duration {
	if w.Hold > 0 {
		return w.Hold
	}
	return EnableHold
}
