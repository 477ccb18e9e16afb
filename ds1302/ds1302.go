// Package ds1302 implements a driver for the DS1302 trickle-charge
// timekeeping chip, which talks over a three-wire serial link (CE, SCLK and a
// bidirectional IO line) usually bit-banged from GPIO pins.
//
// The driver is given the line operations as a Bus and never touches hardware
// otherwise. Besides the clock it gives access to the 31 bytes of battery
// backed RAM, the trickle charger, the oscillator (clock halt) flag and the
// write protect flag.
//
// Write protect is handled transparently: a write to any register but the
// control register clears the flag if needed and sets it again afterwards.
//
// A Device is not safe for concurrent use.
//
// Datasheet: https://www.analog.com/media/en/technical-documentation/data-sheets/DS1302.pdf
package ds1302

import (
	"time"

	"go.uber.org/zap"
	errgo "gopkg.in/errgo.v1"
)

type Device struct {
	bus    Bus
	log    *zap.Logger
	loc    *time.Location
	inited bool
}

type Config struct {
	// Logger receives debug output. Defaults to a no-op logger.
	Logger *zap.Logger
	// TimeZone is the zone the chip time is kept in, used by Now and Set.
	// Defaults to UTC.
	TimeZone *time.Location
}

// New creates a new driver on the given bus. The bus is not touched until
// Init.
func New(bus Bus) *Device {
	return &Device{
		bus: bus,
		log: zap.NewNop(),
		loc: time.UTC,
	}
}

func (d *Device) Configure(c Config) {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.TimeZone == nil {
		c.TimeZone = time.UTC
	}
	d.log = c.Logger
	d.loc = c.TimeZone
}

// Init initializes the CE, SCLK and IO lines in that order and leaves CE and
// SCLK low. If a line fails to initialize the lines already initialized are
// released again. Init on an initialized device does nothing.
func (d *Device) Init() error {
	if d.inited {
		return nil
	}
	if d.bus == nil {
		return paramError("bus is nil")
	}
	if v, ok := d.bus.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return err
		}
	}
	if err := d.bus.CEInit(); err != nil {
		d.log.Debug("ce gpio init failed", zap.Error(err))
		return ioError(err, "ce init")
	}
	if err := d.bus.SCLKInit(); err != nil {
		d.log.Debug("sclk gpio init failed", zap.Error(err))
		_ = d.bus.CEDeinit()
		return ioError(err, "sclk init")
	}
	if err := d.bus.IOInit(); err != nil {
		d.log.Debug("io gpio init failed", zap.Error(err))
		_ = d.bus.SCLKDeinit()
		_ = d.bus.CEDeinit()
		return ioError(err, "io init")
	}
	if err := d.idle(); err != nil {
		_ = d.bus.IODeinit()
		_ = d.bus.SCLKDeinit()
		_ = d.bus.CEDeinit()
		return err
	}
	d.inited = true
	return nil
}

func (d *Device) idle() error {
	if err := d.bus.CEWrite(false); err != nil {
		return ioError(err, "set ce low")
	}
	if err := d.bus.SCLKWrite(false); err != nil {
		return ioError(err, "set sclk low")
	}
	return nil
}

// Deinit releases the IO, SCLK and CE lines in that order. The device is
// uninitialized afterwards even if releasing a line fails; the first failure
// is returned. Deinit on an uninitialized device does nothing.
func (d *Device) Deinit() error {
	if !d.inited {
		return nil
	}
	d.inited = false
	var first error
	steps := []struct {
		name string
		f    func() error
	}{
		{"io deinit", d.bus.IODeinit},
		{"sclk deinit", d.bus.SCLKDeinit},
		{"ce deinit", d.bus.CEDeinit},
	}
	for _, s := range steps {
		if err := s.f(); err != nil {
			d.log.Debug("gpio deinit failed", zap.String("op", s.name), zap.Error(err))
			if first == nil {
				first = ioError(err, s.name)
			}
		}
	}
	return first
}

// Initialized reports whether Init has completed and Deinit has not been
// called since.
func (d *Device) Initialized() bool {
	return d.inited
}

// ReadTime returns the current time, read in one clock burst.
func (d *Device) ReadTime() (Time, error) {
	var raw ClockRegisters
	if err := d.ReadClockBurst(raw[:]); err != nil {
		return Time{}, errgo.NoteMask(err, "cannot read clock", errgo.Any)
	}
	t, err := DecodeTime(raw)
	if err != nil {
		d.log.Debug("clock registers invalid", zap.Binary("raw", raw[:]))
		return Time{}, errgo.Mask(err, errgo.Any)
	}
	return t, nil
}

// SetTime sets the clock to t in one clock burst. The oscillator keeps
// running or stays halted, and write protect is left as it was.
func (d *Device) SetTime(t Time) error {
	if !d.inited {
		return errNotInitialized
	}
	if err := t.Validate(); err != nil {
		d.log.Debug("time invalid", zap.Stringer("time", t), zap.Error(err))
		return errgo.Mask(err, errgo.Any)
	}
	var prev ClockRegisters
	if err := d.ReadClockBurst(prev[:]); err != nil {
		return errgo.NoteMask(err, "cannot read clock", errgo.Any)
	}
	raw, err := EncodeTime(t, prev)
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	if prev.WriteProtected() {
		if err := d.writeReg(RegControl, prev[7]&^bitWriteProtect); err != nil {
			return errgo.NoteMask(err, "cannot clear write protect", errgo.Any)
		}
	}
	// The control byte at the end of the burst restores write protect.
	if err := d.transfer(RegClockBurst, raw[:], nil); err != nil {
		if prev.WriteProtected() {
			_ = d.writeReg(RegControl, prev[7])
		}
		return errgo.NoteMask(err, "cannot write clock", errgo.Any)
	}
	return nil
}

// Oscillator reports whether the oscillator is running.
func (d *Device) Oscillator() (bool, error) {
	if !d.inited {
		return false, errNotInitialized
	}
	sec, err := d.readReg(RegSecond)
	if err != nil {
		return false, errgo.NoteMask(err, "cannot read seconds", errgo.Any)
	}
	return sec&bitHalt == 0, nil
}

// SetOscillator starts or stops the oscillator, keeping the seconds count.
func (d *Device) SetOscillator(enable bool) error {
	if !d.inited {
		return errNotInitialized
	}
	return d.unprotected(true, func() error {
		sec, err := d.readReg(RegSecond)
		if err != nil {
			return errgo.NoteMask(err, "cannot read seconds", errgo.Any)
		}
		sec &^= bitHalt
		if !enable {
			sec |= bitHalt
		}
		if err := d.writeReg(RegSecond, sec); err != nil {
			return errgo.NoteMask(err, "cannot write seconds", errgo.Any)
		}
		return nil
	})
}

// WriteProtect reports whether write protect is set.
func (d *Device) WriteProtect() (bool, error) {
	if !d.inited {
		return false, errNotInitialized
	}
	ctrl, err := d.readReg(RegControl)
	if err != nil {
		return false, errgo.NoteMask(err, "cannot read control", errgo.Any)
	}
	return ctrl&bitWriteProtect != 0, nil
}

// SetWriteProtect sets or clears write protect.
func (d *Device) SetWriteProtect(enable bool) error {
	if !d.inited {
		return errNotInitialized
	}
	ctrl, err := d.readReg(RegControl)
	if err != nil {
		return errgo.NoteMask(err, "cannot read control", errgo.Any)
	}
	ctrl &^= bitWriteProtect
	if enable {
		ctrl |= bitWriteProtect
	}
	if err := d.writeReg(RegControl, ctrl); err != nil {
		return errgo.NoteMask(err, "cannot write control", errgo.Any)
	}
	return nil
}

// Charge returns the trickle charger setting.
func (d *Device) Charge() (Charge, error) {
	if !d.inited {
		return 0, errNotInitialized
	}
	v, err := d.readReg(RegCharge)
	if err != nil {
		return 0, errgo.NoteMask(err, "cannot read charge", errgo.Any)
	}
	return chargeOf(v), nil
}

// SetCharge configures the trickle charger.
func (d *Device) SetCharge(c Charge) error {
	if !d.inited {
		return errNotInitialized
	}
	v, ok := c.register()
	if !ok {
		return paramError("charge %v invalid", c)
	}
	return d.unprotected(true, func() error {
		if err := d.writeReg(RegCharge, v); err != nil {
			return errgo.NoteMask(err, "cannot write charge", errgo.Any)
		}
		return nil
	})
}
