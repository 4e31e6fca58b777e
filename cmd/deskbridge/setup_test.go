package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bxjrke/loctekbridge/internal/config"
	"github.com/bxjrke/loctekbridge/internal/gpio"
	"github.com/bxjrke/loctekbridge/internal/monitoring"
	"github.com/bxjrke/loctekbridge/internal/serialport"
)

func configPort(path, driver string) config.Port {
	return config.Port{Path: path, Serial: serialport.Options{Driver: driver}}
}

// resetFlags restores the flag variables after a test changes them.
func resetFlags(t *testing.T) {
	cp, dp, dr, ep, gb, ng := configPath, deskPath, driver, enablePin, gpioBase, noGPIO
	t.Cleanup(func() {
		configPath, deskPath, driver, enablePin, gpioBase, noGPIO = cp, dp, dr, ep, gb, ng
	})
}

func TestParsePresetFlags(t *testing.T) {
	presets, err := parsePresetFlags([]string{"Sit=9b 06 02 00 01 ac 60 9d", " Stand =9b0602100 0acac9d"})
	require.NoError(t, err)
	assert.Equal(t, []config.Preset{
		{Name: "Sit", Data: "9b 06 02 00 01 ac 60 9d"},
		{Name: "Stand", Data: "9b0602100 0acac9d"},
	}, presets)

	_, err = parsePresetFlags([]string{"no-equals"})
	assert.Error(t, err)

	presets, err = parsePresetFlags(nil)
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestLoadConfigFromFlags(t *testing.T) {
	resetFlags(t)
	configPath = ""
	deskPath = "/dev/ttyS1"
	driver = "tarm"
	enablePin = 17

	cfg, err := loadConfig(func(c *config.Config) {
		c.Keypad = &config.Port{Path: "/dev/ttyS2"}
		c.Presets = []config.Preset{{Name: "Sit", Data: "9b 06 02 00 01 ac 60 9d"}}
	})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS1", cfg.Desk.Path)
	assert.Equal(t, "tarm", cfg.Desk.Serial.Driver)
	assert.Equal(t, 17, cfg.Pin())
	require.NotNil(t, cfg.Keypad)
	assert.Equal(t, "/dev/ttyS2", cfg.Keypad.Path)
}

func TestLoadConfigRejectsMissingDesk(t *testing.T) {
	resetFlags(t)
	configPath = ""
	deskPath = ""

	_, err := loadConfig(nil)
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "desk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"desk": {"path": "/dev/ttyUSB0"}, "enable_pin": -1}`), 0o644))
	configPath = path
	deskPath = "/dev/ignored"

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Desk.Path)
	assert.Equal(t, -1, cfg.Pin())
}

func TestOpenPinFallsBackToLog(t *testing.T) {
	resetFlags(t)

	noGPIO = true
	pin, err := openPin(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, &gpio.Log{}, pin)

	noGPIO = false
	off := -1
	pin, err = openPin(&config.Config{EnablePin: &off})
	require.NoError(t, err)
	assert.IsType(t, &gpio.Log{}, pin)
}

func TestOpenPinSysfs(t *testing.T) {
	resetFlags(t)
	noGPIO = false

	base := t.TempDir()
	dir := filepath.Join(base, "gpio20")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "value"), []byte("0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "direction"), []byte("in\n"), 0o644))

	pin, err := openPin(&config.Config{GPIOBase: base})
	require.NoError(t, err)
	require.IsType(t, &gpio.Sysfs{}, pin)

	pin.Assert()
	assert.True(t, pin.(*gpio.Sysfs).High())
}

func TestTraceChunk(t *testing.T) {
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() {
		monitoring.SetLogger(log.Printf)
		monitoring.SetVerbose(false)
	})

	trace := traceChunk("keypad")

	monitoring.SetVerbose(false)
	trace([]byte{0x01})
	assert.Empty(t, lines)

	monitoring.SetVerbose(true)
	trace([]byte{0x9b, 0x06, 0x02})
	assert.Equal(t, []string{"keypad < 9B 06 02"}, lines)
}

func TestPinLabel(t *testing.T) {
	resetFlags(t)
	noGPIO = false

	assert.Equal(t, "GPIO20", pinLabel(&config.Config{}))

	off := -1
	assert.Equal(t, "log only", pinLabel(&config.Config{EnablePin: &off}))

	noGPIO = true
	assert.Equal(t, "log only", pinLabel(&config.Config{}))
}
