package selftest_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ds1302"
	"github.com/libdriver/drivers/ds1302/ds1302sim"
	"github.com/libdriver/drivers/ds1302/selftest"
)

func TestPrepare(t *testing.T) {
	c := qt.New(t)
	chip := ds1302sim.New()
	chip.Clock[7] = 0x80
	d := ds1302.New(chip)
	c.Assert(selftest.Prepare(d), qt.IsNil)
	c.Assert(d.Initialized(), qt.Equals, true)
	c.Assert(chip.Clock[0]&0x80, qt.Equals, byte(0))
	c.Assert(chip.WriteProtected(), qt.Equals, false)
}

func TestRegisters(t *testing.T) {
	c := qt.New(t)
	for seed := uint64(1); seed <= 5; seed++ {
		chip := ds1302sim.New()
		d := ds1302.New(chip)
		err := selftest.Registers(d, selftest.Config{
			Logger: zaptest.NewLogger(t),
			Rand:   selftest.NewRand(seed),
		})
		c.Assert(err, qt.IsNil, qt.Commentf("seed %d", seed))
		c.Assert(d.Initialized(), qt.Equals, false)
		c.Assert(chip.WriteProtected(), qt.Equals, true)
		c.Assert(chip.Clock[0]&0x80, qt.Equals, byte(0))
		c.Assert(chip.Clock[8], qt.Equals, byte(0x00))
	}
}

func TestRAM(t *testing.T) {
	c := qt.New(t)
	core, logs := observer.New(zap.InfoLevel)
	chip := ds1302sim.New()
	d := ds1302.New(chip)
	err := selftest.RAM(d, 3, selftest.Config{Logger: zap.New(core)})
	c.Assert(err, qt.IsNil)
	c.Assert(d.Initialized(), qt.Equals, false)
	c.Assert(logs.FilterMessage("check passed").Len(), qt.Equals, 6)
	c.Assert(logs.FilterMessage("finish ram test").Len(), qt.Equals, 1)
}

// stuckHigh is a chip whose IO line always reads high.
type stuckHigh struct {
	*ds1302sim.Chip
}

func (stuckHigh) IORead() (bool, error) {
	return true, nil
}

func TestRAMMismatch(t *testing.T) {
	c := qt.New(t)
	d := ds1302.New(stuckHigh{ds1302sim.New()})
	err := selftest.RAM(d, 1, selftest.Config{})
	c.Assert(errgo.Cause(err), qt.Equals, selftest.ErrMismatch)
	c.Assert(err, qt.ErrorMatches, `common ram: wrote .*, read \[255 255 .*\]`)
	c.Assert(d.Initialized(), qt.Equals, false)
}

func TestRegistersBusFailure(t *testing.T) {
	c := qt.New(t)
	chip := ds1302sim.New()
	chip.Fail = func(call ds1302sim.Call, n int) error {
		if call.Op == ds1302sim.IOInit {
			return errgo.New("no such pin")
		}
		return nil
	}
	d := ds1302.New(chip)
	err := selftest.Registers(d, selftest.Config{})
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrHardwareIO)
	c.Assert(err, qt.ErrorMatches, `init failed: ds1302: io init: no such pin`)
}

func TestPrepareFailureDeinits(t *testing.T) {
	c := qt.New(t)
	chip := ds1302sim.New()
	chip.Fail = func(call ds1302sim.Call, n int) error {
		if call.Op == ds1302sim.IORead {
			return errgo.New("line stuck")
		}
		return nil
	}
	d := ds1302.New(chip)
	err := selftest.Prepare(d)
	c.Assert(err, qt.ErrorMatches, `cannot start oscillator: .*line stuck`)
	c.Assert(d.Initialized(), qt.Equals, false)
	c.Assert(chip.CE(), qt.Equals, false)
}
