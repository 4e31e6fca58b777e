package loctek

import "time"

// KeepAlivePeriod is how often the wake frame is sent so the desk keeps
// streaming height data.
const KeepAlivePeriod = 5000 * time.Millisecond

// KeepAlive fires once more than Period has passed since it last fired.
type KeepAlive struct {
	Period time.Duration
	last   time.Time
}

// Start sets the reference time the first period is measured from.
func (k *KeepAlive) Start(now time.Time) {
	k.last = now
}

// Due reports whether the keep-alive should fire at now, and if so moves the
// reference time forward to now.
func (k *KeepAlive) Due(now time.Time) bool {
	period := k.Period
	if period <= 0 {
		period = KeepAlivePeriod
	}

	if now.Sub(k.last) <= period {
		return false
	}
	k.last = now
	return true
}
