package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	loctek "github.com/bxjrke/loctekbridge"
	"github.com/bxjrke/loctekbridge/internal/serialport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "desk.json", `{
		"desk": {"path": "/dev/ttyS1", "serial": {"baud_rate": 9600}},
		"keypad": {"path": "/dev/ttyS2", "read_timeout": "50ms"},
		"enable_pin": 17,
		"tick_interval": "5ms",
		"m_button": "M",
		"wake_switch": "Wake Up",
		"presets": [
			{"name": "Stand", "data": "9b 06 02 10 00 ac ac 9d"},
			{"name": "Sit", "data": "0x9b,0x06,0x02,0x00,0x01,0xac,0x60,0x9d"}
		]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS1", cfg.Desk.Path)
	assert.Equal(t, 17, cfg.Pin())

	tick, err := cfg.Tick()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, tick)

	opts, err := cfg.Keypad.Options()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, opts.ReadTimeout)
	assert.Equal(t, serialport.DriverBugst, opts.Driver)

	frames, err := cfg.PresetFrames()
	require.NoError(t, err)
	assert.Equal(t, []loctek.Frame{loctek.FramePreset3, loctek.FramePreset4}, frames)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "min.json", `{"desk": {"path": "/dev/ttyS1"}}`))
	require.NoError(t, err)

	assert.Nil(t, cfg.Keypad)
	assert.Equal(t, DefaultEnablePin, cfg.Pin())
	tick, err := cfg.Tick()
	require.NoError(t, err)
	assert.Equal(t, DefaultTickInterval, tick)
}

func TestLoad_Errors(t *testing.T) {
	for name, body := range map[string]string{
		"no desk":        `{}`,
		"same ports":     `{"desk": {"path": "/dev/ttyS1"}, "keypad": {"path": "/dev/ttyS1"}}`,
		"bad parity":     `{"desk": {"path": "/dev/ttyS1", "serial": {"parity": "Q"}}}`,
		"bad tick":       `{"desk": {"path": "/dev/ttyS1"}, "tick_interval": "soon"}`,
		"negative tick":  `{"desk": {"path": "/dev/ttyS1"}, "tick_interval": "-1ms"}`,
		"bad timeout":    `{"desk": {"path": "/dev/ttyS1", "read_timeout": "x"}}`,
		"short preset":   `{"desk": {"path": "/dev/ttyS1"}, "presets": [{"name": "a", "data": "9b 06"}]}`,
		"unnamed preset": `{"desk": {"path": "/dev/ttyS1"}, "presets": [{"data": "9b 06 02 04 00 ac a3 9d"}]}`,
		"dup preset": `{"desk": {"path": "/dev/ttyS1"}, "presets": [
			{"name": "a", "data": "9b 06 02 04 00 ac a3 9d"},
			{"name": "a", "data": "9b 06 02 08 00 ac a6 9d"}]}`,
		"too many presets": `{"desk": {"path": "/dev/ttyS1"}, "presets": [
			{"name": "1", "data": "9b 06 02 04 00 ac a3 9d"},
			{"name": "2", "data": "9b 06 02 08 00 ac a6 9d"},
			{"name": "3", "data": "9b 06 02 10 00 ac ac 9d"},
			{"name": "4", "data": "9b 06 02 00 01 ac 60 9d"},
			{"name": "5", "data": "9b 06 02 00 01 ac 60 9d"}]}`,
		"not json": `desk: /dev/ttyS1`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "c.json", body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_WrongExtension(t *testing.T) {
	_, err := Load(writeConfig(t, "desk.yaml", `{"desk": {"path": "/dev/ttyS1"}}`))
	assert.Error(t, err)
}
