package loctek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePin struct {
	high        bool
	transitions []bool
}

func (p *fakePin) Assert() {
	p.high = true
	p.transitions = append(p.transitions, true)
}

func (p *fakePin) Deassert() {
	p.high = false
	p.transitions = append(p.transitions, false)
}

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestEnableWindow_ReleasesAfterHold(t *testing.T) {
	pin := &fakePin{}
	released := 0
	w := &EnableWindow{Pin: pin, OnRelease: func() { released++ }}

	w.Assert(epoch)
	assert.True(t, pin.high)
	assert.True(t, w.Active())

	w.Tick(epoch.Add(500 * time.Millisecond))
	assert.True(t, pin.high)

	w.Tick(epoch.Add(EnableHold))
	assert.True(t, pin.high, "hold must be exceeded, not just reached")

	w.Tick(epoch.Add(EnableHold + time.Millisecond))
	assert.False(t, pin.high)
	assert.False(t, w.Active())
	assert.Equal(t, 1, released)

	w.Tick(epoch.Add(10 * time.Second))
	assert.Equal(t, []bool{true, false}, pin.transitions, "inactive window must not touch the pin")
	assert.Equal(t, 1, released)
}

func TestEnableWindow_ReassertExtendsHold(t *testing.T) {
	pin := &fakePin{}
	w := &EnableWindow{Pin: pin}

	w.Assert(epoch)
	second := epoch.Add(600 * time.Millisecond)
	w.Assert(second)

	w.Tick(epoch.Add(EnableHold + time.Millisecond))
	assert.True(t, pin.high, "second assert restarts the hold")

	w.Tick(second.Add(EnableHold + time.Millisecond))
	assert.False(t, pin.high)
}

func TestEnableWindow_MissedTicksOnlyDelay(t *testing.T) {
	pin := &fakePin{}
	w := &EnableWindow{Pin: pin}

	w.Assert(epoch)
	w.Tick(epoch.Add(time.Minute))
	assert.False(t, pin.high)
	assert.Equal(t, []bool{true, false}, pin.transitions)
}

func TestEnableWindow_CustomHold(t *testing.T) {
	pin := &fakePin{}
	w := &EnableWindow{Pin: pin, Hold: 50 * time.Millisecond}

	w.Assert(epoch)
	w.Tick(epoch.Add(51 * time.Millisecond))
	assert.False(t, pin.high)
}
