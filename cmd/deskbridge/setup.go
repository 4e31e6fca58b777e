package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	loctek "github.com/bxjrke/loctekbridge"
	"github.com/bxjrke/loctekbridge/internal/config"
	"github.com/bxjrke/loctekbridge/internal/gpio"
	"github.com/bxjrke/loctekbridge/internal/monitoring"
	"github.com/bxjrke/loctekbridge/internal/serialport"
)

var (
	verbose    = false
	configPath = ""
	deskPath   = ""
	driver     = serialport.DriverBugst
	enablePin  = config.DefaultEnablePin
	gpioBase   = gpio.DefaultSysfsBase
	noGPIO     = false
)

// openPort is replaced in tests.
var openPort serialport.Opener = serialport.Open

func addDeskFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&configPath, "config", "c", configPath, "JSON config file; overrides the port and pin flags")
	fs.StringVar(&deskPath, "desk", deskPath, "Serial device wired to the desk control box")
	fs.StringVar(&driver, "driver", driver, "Serial driver: bugst or tarm")
	fs.IntVar(&enablePin, "pin", enablePin, "GPIO number of the desk enable line (PIN 20)")
	fs.StringVar(&gpioBase, "gpio-base", gpioBase, "sysfs GPIO directory")
	fs.BoolVar(&noGPIO, "no-gpio", noGPIO, "Do not drive a GPIO, only log enable line changes")
}

// loadConfig reads --config or assembles a config from flags.
func loadConfig(flagCfg func(*config.Config)) (*config.Config, error) {
	monitoring.SetVerbose(verbose)

	if configPath != "" {
		return config.Load(configPath)
	}

	pin := enablePin
	cfg := &config.Config{
		Desk:      config.Port{Path: deskPath, Serial: serialport.Options{Driver: driver}},
		EnablePin: &pin,
		GPIOBase:  gpioBase,
	}
	if flagCfg != nil {
		flagCfg(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openEndpoint(name string, p config.Port) (*loctek.Endpoint, serialport.Port, error) {
	opts, err := p.Options()
	if err != nil {
		return nil, nil, err
	}

	port, err := openPort(p.Path, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", name, err)
	}

	ep := loctek.NewEndpoint(name, port)
	ep.OnReceive = traceChunk(name)
	return ep, port, nil
}

// traceChunk logs each chunk read from the named port when verbose.
func traceChunk(name string) func([]byte) {
	return func(bs []byte) {
		monitoring.Debugf("%s < % 02X", name, bs)
	}
}

// pinLabel describes the enable line for the config dump.
func pinLabel(cfg *config.Config) string {
	if noGPIO || cfg.Pin() < 0 {
		return "log only"
	}
	return fmt.Sprintf("GPIO%d", cfg.Pin())
}

func openPin(cfg *config.Config) (loctek.Pin, error) {
	if noGPIO || cfg.Pin() < 0 {
		return &gpio.Log{Name: "enable"}, nil
	}

	pin, err := gpio.OpenSysfs(cfg.GPIOBase, cfg.Pin())
	if err != nil {
		return nil, fmt.Errorf("opening enable pin: %w", err)
	}
	return pin, nil
}

// parsePresetFlags turns NAME=HEX values into config presets.
func parsePresetFlags(values []string) ([]config.Preset, error) {
	var presets []config.Preset
	for _, v := range values {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("preset %q: expected NAME=HEX", v)
		}
		presets = append(presets, config.Preset{Name: strings.TrimSpace(parts[0]), Data: parts[1]})
	}
	return presets, nil
}
