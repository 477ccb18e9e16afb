// Package selftest holds hardware checks for a DS1302: a register test that
// exercises every setting and a RAM test that writes and reads back random
// data. Both leave the chip with the oscillator running.
//
// The checks write to the chip: the time and the RAM contents are lost.
package selftest

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ds1302"
)

// ErrMismatch is the cause of the error returned when a value read back from
// the chip differs from the value written.
var ErrMismatch = errgo.New("read back mismatch")

// Config holds the optional settings of the checks.
type Config struct {
	// Logger receives one line per step. Defaults to a no-op logger.
	Logger *zap.Logger
	// Rand is the source of test data. Defaults to a generator seeded
	// with 1.
	Rand *rand.Rand
}

func (c Config) defaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Rand == nil {
		c.Rand = NewRand(1)
	}
	return c
}

// NewRand returns a generator for Config.Rand.
func NewRand(seed uint64) *rand.Rand {
	src := &rand.PCGSource{}
	src.Seed(seed)
	return rand.New(src)
}

// Prepare initializes d, starts the oscillator and clears write protect. If
// any step fails d is left uninitialized.
func Prepare(d *ds1302.Device) error {
	if err := d.Init(); err != nil {
		return errgo.NoteMask(err, "init failed", errgo.Any)
	}
	if err := d.SetOscillator(true); err != nil {
		d.Deinit()
		return errgo.NoteMask(err, "cannot start oscillator", errgo.Any)
	}
	if err := d.SetWriteProtect(false); err != nil {
		d.Deinit()
		return errgo.NoteMask(err, "cannot clear write protect", errgo.Any)
	}
	return nil
}

func logInfo(log *zap.Logger) {
	info := ds1302.ChipInfo()
	log.Info("chip",
		zap.String("name", info.ChipName),
		zap.String("manufacturer", info.ManufacturerName),
		zap.String("interface", info.Interface),
		zap.String("driver", fmt.Sprintf("%d.%d", info.DriverVersion/1000, info.DriverVersion%1000/100)),
		zap.Float32("supply_min_v", info.SupplyVoltageMinV),
		zap.Float32("supply_max_v", info.SupplyVoltageMaxV),
		zap.Float32("max_current_ma", info.MaxCurrentMA),
		zap.Float32("temp_min_c", info.TemperatureMin),
		zap.Float32("temp_max_c", info.TemperatureMax),
	)
}

func mismatch(what string, want, got interface{}) error {
	return errgo.WithCausef(nil, ErrMismatch, "%s: wrote %v, read %v", what, want, got)
}
