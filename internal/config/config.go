// Package config loads the bridge's JSON configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	loctek "github.com/bxjrke/loctekbridge"
	"github.com/bxjrke/loctekbridge/internal/serialport"
)

// MaxPresets is how many preset buttons a desk keypad offers.
const MaxPresets = 4

// Defaults applied by Load when fields are omitted.
const (
	DefaultTickInterval = 2 * time.Millisecond
	DefaultEnablePin    = 20
)

// Port names a serial device and how to open it.
type Port struct {
	Path        string             `json:"path"`
	Serial      serialport.Options `json:"serial"`
	ReadTimeout string             `json:"read_timeout,omitempty"` // duration string like "100ms"
}

// Preset is a labelled preset button and the frame it sends.
type Preset struct {
	Name string `json:"name"`
	Data string `json:"data"` // 8 hex bytes, e.g. "9b 06 02 00 01 ac 60 9d"
}

// Config is the root of the configuration file.
type Config struct {
	Desk   Port  `json:"desk"`
	Keypad *Port `json:"keypad,omitempty"`

	// EnablePin is the GPIO wired to the desk's wake line. A negative value
	// disables GPIO and only logs transitions.
	EnablePin *int   `json:"enable_pin,omitempty"`
	GPIOBase  string `json:"gpio_base,omitempty"`

	TickInterval string `json:"tick_interval,omitempty"` // duration string like "2ms"
	Listen       string `json:"listen,omitempty"`
	Record       string `json:"record,omitempty"`

	MButton    string   `json:"m_button,omitempty"`
	WakeSwitch string   `json:"wake_switch,omitempty"`
	Presets    []Preset `json:"presets,omitempty"`
}

// Load reads and validates a JSON config file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ports, durations and presets.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Desk.Path) == "" {
		return fmt.Errorf("desk.path is required")
	}
	if _, err := c.Desk.Options(); err != nil {
		return fmt.Errorf("desk: %w", err)
	}
	if c.Keypad != nil {
		if strings.TrimSpace(c.Keypad.Path) == "" {
			return fmt.Errorf("keypad.path is required when keypad is set")
		}
		if c.Keypad.Path == c.Desk.Path {
			return fmt.Errorf("desk and keypad must be different ports, both are %s", c.Desk.Path)
		}
		if _, err := c.Keypad.Options(); err != nil {
			return fmt.Errorf("keypad: %w", err)
		}
	}

	if _, err := c.Tick(); err != nil {
		return err
	}

	if len(c.Presets) > MaxPresets {
		return fmt.Errorf("at most %d presets, got %d", MaxPresets, len(c.Presets))
	}
	seen := make(map[string]bool)
	for i, p := range c.Presets {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("preset %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("preset %q defined twice", p.Name)
		}
		seen[p.Name] = true
		if _, err := loctek.ParseFrame(p.Data); err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
	}

	return nil
}

// Options returns the normalized serial options, including the read timeout.
func (p Port) Options() (serialport.Options, error) {
	opts := p.Serial
	if p.ReadTimeout != "" {
		d, err := time.ParseDuration(p.ReadTimeout)
		if err != nil {
			return opts, fmt.Errorf("invalid read_timeout %q: %w", p.ReadTimeout, err)
		}
		opts.ReadTimeout = d
	}
	return opts.Normalize()
}

// Tick returns the polling interval of the tick loop.
func (c *Config) Tick() (time.Duration, error) {
	if c.TickInterval == "" {
		return DefaultTickInterval, nil
	}
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid tick_interval %q: %w", c.TickInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("tick_interval must be positive, got %s", d)
	}
	return d, nil
}

// Pin returns the enable GPIO number, defaulting to DefaultEnablePin.
func (c *Config) Pin() int {
	if c.EnablePin == nil {
		return DefaultEnablePin
	}
	return *c.EnablePin
}

// PresetFrames returns the parsed preset frames in file order.
func (c *Config) PresetFrames() ([]loctek.Frame, error) {
	frames := make([]loctek.Frame, 0, len(c.Presets))
	for _, p := range c.Presets {
		f, err := loctek.ParseFrame(p.Data)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
