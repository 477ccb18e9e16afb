package main

import (
	"io"

	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ch347"
	"github.com/libdriver/drivers/ds1302"
	"github.com/libdriver/drivers/ds1302/ds1302sim"
	"github.com/libdriver/drivers/i2cdev"
	"github.com/libdriver/drivers/pcf8574"
)

var errUnknownBackend = errgo.New("unknown backend")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openBackend returns the lines of the configured backend and the closer
// releasing the hardware behind them.
func openBackend(cfg Config) (ds1302.Bus, io.Closer, error) {
	pins := cfg.pins()
	switch cfg.Backend {
	case "sim":
		return ds1302sim.New(), nopCloser{}, nil
	case "ch347":
		dev, err := ch347.Open(cfg.CH347.Path)
		if err != nil {
			return nil, nil, errgo.Mask(err, errgo.Any)
		}
		l := ch347.NewLines(dev)
		l.CE, l.SCLK, l.Data = ch347.Pin(pins.CE), ch347.Pin(pins.SCLK), ch347.Pin(pins.IO)
		return l, dev, nil
	case "pcf8574":
		bus := i2cdev.Open(cfg.PCF8574.Device)
		dev := pcf8574.New(bus)
		dev.Configure(pcf8574.Config{Address: cfg.PCF8574.Address})
		l := pcf8574.NewLines(dev)
		l.CE, l.SCLK, l.Data = pins.CE, pins.SCLK, pins.IO
		return l, bus, nil
	}
	return nil, nil, errgo.WithCausef(nil, errUnknownBackend, "ds1302: unknown backend %q", cfg.Backend)
}
