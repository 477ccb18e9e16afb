// The ds1302 command drives a DS1302 real time clock from a host through a
// CH347 USB adapter or a PCF8574 I2C expander, or talks to a simulated chip.
// It shows the chip information, runs the register and RAM tests and the
// driver examples, and can serve the same commands as a line shell on the
// terminal or on a serial port.
package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/tarm/serial"
	"go.uber.org/zap"
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ds1302"
	"github.com/libdriver/drivers/ds1302/selftest"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// hostFlags holds the flags that select and set up the hardware. They are
// only accepted on the program command line, not in the shell.
type hostFlags struct {
	config   string
	backend  string
	zone     string
	logLevel string
	shell    bool
	serial   string
}

func (h *hostFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&h.config, "config", "", "read the host configuration from the YAML `file`")
	fs.StringVar(&h.backend, "backend", "", "select the `backend`: sim, ch347 or pcf8574")
	fs.StringVar(&h.zone, "zone", "", "set the time `zone` of the chip clock, an hour offset or a zone name")
	fs.StringVar(&h.logLevel, "log-level", "", "set the log `level`")
	fs.BoolVar(&h.shell, "shell", false, "read commands from standard input")
	fs.StringVar(&h.serial, "serial", "", "read commands from the serial `device` and answer on it")
}

// apply overrides cfg with the flags that were given.
func (h *hostFlags) apply(fs *pflag.FlagSet, cfg *Config) {
	if fs.Changed("backend") {
		cfg.Backend = h.backend
	}
	if fs.Changed("zone") {
		cfg.Zone = h.zone
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = h.logLevel
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o := newOptions()
	var h hostFlags
	h.register(o.fs)
	if err := o.fs.Parse(args); err != nil {
		return report(stderr, invalid("%v", err))
	}
	cfg, err := readConfig(h.config)
	if err != nil {
		return report(stderr, err)
	}
	h.apply(o.fs, &cfg)
	if len(args) == 0 {
		printHelp(stdout, o)
		return statusOK
	}

	log, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return report(stderr, invalid("%v", err))
	}
	if !h.shell && h.serial == "" && (o.help || o.information || o.port) {
		// These need no hardware.
		r := &runner{cfg: cfg, out: stdout, log: log}
		return report(stderr, r.exec(o))
	}
	r, closer, err := newRunner(cfg, log, stdout)
	if err != nil {
		return report(stderr, err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn("cannot close backend", zap.Error(err))
		}
	}()

	switch {
	case h.serial != "":
		port, err := serial.OpenPort(&serial.Config{
			Name: h.serial,
			Baud: cfg.Serial.Baud,
		})
		if err != nil {
			return report(stderr, errgo.Notef(err, "cannot open %s", h.serial))
		}
		defer port.Close()
		r.out = port
		return report(stderr, r.shell(port))
	case h.shell:
		return report(stderr, r.shell(stdin))
	}
	return report(stderr, r.exec(o))
}

// newRunner opens the configured backend and returns a runner for it with
// the closer of the backend.
func newRunner(cfg Config, log *zap.Logger, out io.Writer) (*runner, io.Closer, error) {
	loc, err := location(cfg.Zone)
	if err != nil {
		return nil, nil, invalid("%v", err)
	}
	bus, closer, err := openBackend(cfg)
	if err != nil {
		return nil, nil, errgo.Mask(err, errgo.Any)
	}
	dev := ds1302.New(bus)
	dev.Configure(ds1302.Config{
		Logger:   log.Named("ds1302"),
		TimeZone: loc,
	})
	return &runner{
		dev:  dev,
		cfg:  cfg,
		out:  out,
		log:  log,
		rand: selftest.NewRand(uint64(time.Now().UnixNano())),
		now:  time.Now,
	}, closer, nil
}
