package selftest

import (
	"bytes"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ds1302"
)

// Registers checks the time in both formats, the trickle charger, a clock
// burst round trip, write protect and the oscillator. d is initialized
// first and deinitialized afterwards.
func Registers(d *ds1302.Device, cfg Config) (err error) {
	cfg = cfg.defaults()
	log := cfg.Logger
	logInfo(log)
	log.Info("start register test")
	if err := Prepare(d); err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	defer func() {
		if derr := d.Deinit(); derr != nil && err == nil {
			err = errgo.Mask(derr, errgo.Any)
		}
	}()

	log.Info("set time / read time")
	for _, f := range []ds1302.Format{ds1302.Format12H, ds1302.Format24H} {
		if err := checkTime(d, log, randomTime(cfg.Rand, f)); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
	}

	log.Info("set charge / read charge")
	for _, c := range []ds1302.Charge{ds1302.Charge2Diode8K, ds1302.ChargeDisabled} {
		if err := d.SetCharge(c); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		got, err := d.Charge()
		if err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		log.Info("charge", zap.Stringer("set", c), zap.Stringer("read", got))
		if got != c {
			return mismatch("charge", c, got)
		}
	}

	log.Info("clock burst write / clock burst read")
	burst := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x00}
	if err := d.WriteClockBurst(burst); err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	check := make([]byte, len(burst))
	if err := d.ReadClockBurst(check); err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	log.Info("clock burst", zap.Binary("write", burst), zap.Binary("read", check))
	// The seconds may have moved on if the oscillator is running.
	if !bytes.Equal(burst[1:], check[1:]) || check[0]&0x7F < burst[0] {
		return mismatch("clock burst", burst, check)
	}

	log.Info("set write protect / read write protect")
	for _, enable := range []bool{false, true} {
		if err := d.SetWriteProtect(enable); err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		got, err := d.WriteProtect()
		if err != nil {
			return errgo.Mask(err, errgo.Any)
		}
		log.Info("write protect", zap.Bool("set", enable), zap.Bool("read", got))
		if got != enable {
			return mismatch("write protect", enable, got)
		}
	}

	log.Info("set oscillator / read oscillator")
	if err := d.SetOscillator(true); err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	on, err := d.Oscillator()
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	log.Info("oscillator", zap.Bool("set", true), zap.Bool("read", on))
	if !on {
		return mismatch("oscillator", true, on)
	}
	log.Info("finish register test")
	return nil
}

// randomTime returns a valid time in format f. The second is kept below 59 so
// that a running clock cannot carry into the minute before it is read back.
func randomTime(r *rand.Rand, f ds1302.Format) ds1302.Time {
	t := ds1302.Time{
		Year:   uint16(2000 + r.Intn(100)),
		Month:  uint8(1 + r.Intn(12)),
		Date:   uint8(1 + r.Intn(20)),
		Week:   uint8(1 + r.Intn(7)),
		Minute: uint8(r.Intn(60)),
		Second: uint8(r.Intn(59)),
		Format: f,
	}
	if f == ds1302.Format12H {
		t.Hour = uint8(1 + r.Intn(12))
		t.AMPM = ds1302.AMPM(r.Intn(2))
	} else {
		t.Hour = uint8(r.Intn(24))
	}
	return t
}

func checkTime(d *ds1302.Device, log *zap.Logger, t ds1302.Time) error {
	if err := d.SetTime(t); err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	got, err := d.ReadTime()
	if err != nil {
		return errgo.Mask(err, errgo.Any)
	}
	log.Info("time", zap.Stringer("set", t), zap.Stringer("read", got))
	want := t
	if got.Second == want.Second+1 {
		want.Second++
	}
	if got != want {
		return mismatch("time", t, got)
	}
	return nil
}
