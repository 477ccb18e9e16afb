package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	errgo "gopkg.in/errgo.v1"
	"gopkg.in/yaml.v3"
)

// Config is the host configuration, read from a YAML file. Flags given on
// the command line override it.
type Config struct {
	// Backend selects the hardware: sim, ch347 or pcf8574.
	Backend string `yaml:"backend"`
	// Zone is the time zone of the chip clock: an hour offset such as "8"
	// or a zone name such as "Asia/Shanghai".
	Zone string `yaml:"zone"`
	// LogLevel is a zap level name.
	LogLevel string `yaml:"log-level"`
	// Pins maps the CE, SCLK and IO lines to backend pins. When unset
	// the backend's default pins are used.
	Pins    *Pins         `yaml:"pins"`
	CH347   CH347Config   `yaml:"ch347"`
	PCF8574 PCF8574Config `yaml:"pcf8574"`
	Serial  SerialConfig  `yaml:"serial"`
}

type Pins struct {
	CE   uint8 `yaml:"ce"`
	SCLK uint8 `yaml:"sclk"`
	IO   uint8 `yaml:"io"`
}

type CH347Config struct {
	// Path is the HID device path. When empty the first CH347 found is
	// used.
	Path string `yaml:"path"`
}

type PCF8574Config struct {
	Device  string `yaml:"device"`
	Address uint8  `yaml:"address"`
}

type SerialConfig struct {
	Baud int `yaml:"baud"`
}

// defaultPins holds the default line assignment of each backend.
var defaultPins = map[string]Pins{
	"sim":     {},
	"ch347":   {CE: 5, SCLK: 0, IO: 1},
	"pcf8574": {CE: 0, SCLK: 1, IO: 2},
}

func defaultConfig() Config {
	return Config{
		Backend:  "sim",
		Zone:     "8",
		LogLevel: "info",
		PCF8574: PCF8574Config{
			Device:  "/dev/i2c-1",
			Address: 0x20,
		},
		Serial: SerialConfig{
			Baud: 115200,
		},
	}
}

// readConfig reads the configuration file at path over the defaults.
func readConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errgo.Notef(err, "cannot read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errgo.Notef(err, "cannot parse %s", path)
	}
	return cfg, nil
}

func (c Config) pins() Pins {
	if c.Pins != nil {
		return *c.Pins
	}
	return defaultPins[c.Backend]
}

// location returns the time zone named by zone.
func location(zone string) (*time.Location, error) {
	if h, err := strconv.Atoi(zone); err == nil {
		if h < -12 || h > 14 {
			return nil, errgo.Newf("time zone offset %d out of range", h)
		}
		return time.FixedZone(fmt.Sprintf("UTC%+d", h), h*3600), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, errgo.Notef(err, "bad time zone")
	}
	return loc, nil
}

// newLogger returns a console logger writing to w at the given level.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errgo.Notef(err, "bad log level")
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
