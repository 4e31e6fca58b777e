// Package gpio drives the desk's enable line (PIN 20 on the RJ45 plug).
// The sysfs implementation exports the pin as an output; the Log
// implementation only records transitions, for running without hardware.
package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bxjrke/loctekbridge/internal/monitoring"
)

// DefaultSysfsBase is where the kernel exposes the legacy GPIO interface.
const DefaultSysfsBase = "/sys/class/gpio"

// exportSettle is how long udev needs to fix permissions on a freshly
// exported pin.
var exportSettle = 100 * time.Millisecond

// Sysfs is an output pin driven through /sys/class/gpio.
type Sysfs struct {
	Pin  int
	Base string

	mu   sync.Mutex
	high bool
}

// OpenSysfs exports pin if needed, configures it as an output and drives it
// low.
func OpenSysfs(base string, pin int) (*Sysfs, error) {
	if pin < 0 {
		return nil, fmt.Errorf("invalid gpio pin %d", pin)
	}
	if base == "" {
		base = DefaultSysfsBase
	}

	s := &Sysfs{Pin: pin, Base: base}

	// Export if needed
	if _, err := os.Stat(s.valuePath()); os.IsNotExist(err) {
		if err := os.WriteFile(filepath.Join(base, "export"), []byte(strconv.Itoa(pin)), 0644); err != nil {
			return nil, fmt.Errorf("exporting gpio %d: %w", pin, err)
		}
		time.Sleep(exportSettle)
	}

	dirPath := filepath.Join(base, fmt.Sprintf("gpio%d", pin), "direction")
	if err := os.WriteFile(dirPath, []byte("out"), 0644); err != nil {
		return nil, fmt.Errorf("setting gpio %d direction: %w", pin, err)
	}

	if err := s.write(false); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sysfs) valuePath() string {
	return filepath.Join(s.Base, fmt.Sprintf("gpio%d", s.Pin), "value")
}

func (s *Sysfs) write(high bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := "0"
	if high {
		v = "1"
	}
	if err := os.WriteFile(s.valuePath(), []byte(v), 0644); err != nil {
		return fmt.Errorf("writing gpio %d: %w", s.Pin, err)
	}
	s.high = high
	return nil
}

// Assert drives the pin high. Write failures are logged, not returned.
func (s *Sysfs) Assert() {
	if err := s.write(true); err != nil {
		monitoring.Logf("gpio: %v", err)
	}
}

// Deassert drives the pin low.
func (s *Sysfs) Deassert() {
	if err := s.write(false); err != nil {
		monitoring.Logf("gpio: %v", err)
	}
}

// High reports the last level successfully written.
func (s *Sysfs) High() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.high
}

// Log stands in for a real pin and only logs transitions.
type Log struct {
	Name string

	mu   sync.Mutex
	high bool
}

func (l *Log) Assert()   { l.set(true) }
func (l *Log) Deassert() { l.set(false) }

func (l *Log) set(high bool) {
	l.mu.Lock()
	l.high = high
	l.mu.Unlock()
	monitoring.Debugf("gpio %s -> %t", l.Name, high)
}

// High reports the current level.
func (l *Log) High() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.high
}
