package ds1302_test

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers/ds1302"
	"github.com/libdriver/drivers/ds1302/ds1302sim"
)

var (
	_ ds1302.Bus             = (*ds1302sim.Chip)(nil)
	_ ds1302.DirectionSetter = (*ds1302sim.Chip)(nil)
)

// newDevice returns an initialized device on a fresh simulated chip with
// an empty trace.
func newDevice(c *qt.C) (*ds1302.Device, *ds1302sim.Chip) {
	chip := ds1302sim.New()
	d := ds1302.New(chip)
	c.Assert(d.Init(), qt.IsNil)
	chip.ResetTrace()
	chip.Elapsed = 0
	return d, chip
}

func call(op ds1302sim.Op, level bool) ds1302sim.Call {
	return ds1302sim.Call{Op: op, Level: level}
}

func count(trace []ds1302sim.Call, want ds1302sim.Call) int {
	n := 0
	for _, c := range trace {
		if c == want {
			n++
		}
	}
	return n
}

func TestInit(t *testing.T) {
	c := qt.New(t)
	chip := ds1302sim.New()
	d := ds1302.New(chip)
	c.Assert(d.Initialized(), qt.Equals, false)
	c.Assert(d.Init(), qt.IsNil)
	c.Assert(d.Initialized(), qt.Equals, true)
	c.Assert(chip.Trace(), qt.DeepEquals, []ds1302sim.Call{
		call(ds1302sim.CEInit, false),
		call(ds1302sim.SCLKInit, false),
		call(ds1302sim.IOInit, false),
		call(ds1302sim.CEWrite, false),
		call(ds1302sim.SCLKWrite, false),
	})

	chip.ResetTrace()
	c.Assert(d.Init(), qt.IsNil)
	c.Assert(chip.Trace(), qt.HasLen, 0)
}

var initFailTests = []struct {
	testName string
	failOn   ds1302sim.Op
	expect   []ds1302sim.Call
}{{
	testName: "ce",
	failOn:   ds1302sim.CEInit,
	expect: []ds1302sim.Call{
		call(ds1302sim.CEInit, false),
	},
}, {
	testName: "sclk",
	failOn:   ds1302sim.SCLKInit,
	expect: []ds1302sim.Call{
		call(ds1302sim.CEInit, false),
		call(ds1302sim.SCLKInit, false),
		call(ds1302sim.CEDeinit, false),
	},
}, {
	testName: "io",
	failOn:   ds1302sim.IOInit,
	expect: []ds1302sim.Call{
		call(ds1302sim.CEInit, false),
		call(ds1302sim.SCLKInit, false),
		call(ds1302sim.IOInit, false),
		call(ds1302sim.SCLKDeinit, false),
		call(ds1302sim.CEDeinit, false),
	},
}}

func TestInitFailure(t *testing.T) {
	c := qt.New(t)
	for _, test := range initFailTests {
		c.Run(test.testName, func(c *qt.C) {
			chip := ds1302sim.New()
			chip.Fail = func(call ds1302sim.Call, n int) error {
				if call.Op == test.failOn {
					return errgo.New("line busy")
				}
				return nil
			}
			d := ds1302.New(chip)
			err := d.Init()
			c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrHardwareIO)
			c.Assert(err, qt.ErrorMatches, `ds1302: .* init: line busy`)
			c.Assert(d.Initialized(), qt.Equals, false)
			c.Assert(chip.Trace(), qt.DeepEquals, test.expect)
		})
	}
}

func TestInitNilBus(t *testing.T) {
	c := qt.New(t)
	err := ds1302.New(nil).Init()
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrParameter)
}

func TestDeinit(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	c.Assert(d.Deinit(), qt.IsNil)
	c.Assert(d.Initialized(), qt.Equals, false)
	c.Assert(chip.Trace(), qt.DeepEquals, []ds1302sim.Call{
		call(ds1302sim.IODeinit, false),
		call(ds1302sim.SCLKDeinit, false),
		call(ds1302sim.CEDeinit, false),
	})

	chip.ResetTrace()
	c.Assert(d.Deinit(), qt.IsNil)
	c.Assert(chip.Trace(), qt.HasLen, 0)

	_, err := d.ReadTime()
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrNotInitialized)
}

func TestDeinitFailure(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	chip.Fail = func(call ds1302sim.Call, n int) error {
		if call.Op == ds1302sim.SCLKDeinit {
			return errgo.New("stuck")
		}
		return nil
	}
	err := d.Deinit()
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrHardwareIO)
	c.Assert(err, qt.ErrorMatches, `ds1302: sclk deinit: stuck`)
	c.Assert(d.Initialized(), qt.Equals, false)
	// The remaining lines are still released.
	c.Assert(count(chip.Trace(), call(ds1302sim.CEDeinit, false)), qt.Equals, 1)

	// The device can be initialized again.
	chip.Fail = nil
	c.Assert(d.Init(), qt.IsNil)
}

var notInitializedTests = []struct {
	testName string
	op       func(d *ds1302.Device) error
}{{
	testName: "ReadTime",
	op: func(d *ds1302.Device) error {
		_, err := d.ReadTime()
		return err
	},
}, {
	testName: "SetTime",
	op: func(d *ds1302.Device) error {
		return d.SetTime(ds1302.Time{Year: 2024, Month: 1, Date: 1})
	},
}, {
	testName: "Now",
	op: func(d *ds1302.Device) error {
		_, err := d.Now()
		return err
	},
}, {
	testName: "Set",
	op: func(d *ds1302.Device) error {
		return d.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	},
}, {
	testName: "Oscillator",
	op: func(d *ds1302.Device) error {
		_, err := d.Oscillator()
		return err
	},
}, {
	testName: "SetOscillator",
	op: func(d *ds1302.Device) error {
		return d.SetOscillator(true)
	},
}, {
	testName: "WriteProtect",
	op: func(d *ds1302.Device) error {
		_, err := d.WriteProtect()
		return err
	},
}, {
	testName: "SetWriteProtect",
	op: func(d *ds1302.Device) error {
		return d.SetWriteProtect(false)
	},
}, {
	testName: "Charge",
	op: func(d *ds1302.Device) error {
		_, err := d.Charge()
		return err
	},
}, {
	testName: "SetCharge",
	op: func(d *ds1302.Device) error {
		return d.SetCharge(ds1302.Charge1Diode2K)
	},
}, {
	testName: "GetReg",
	op: func(d *ds1302.Device) error {
		return d.GetReg(ds1302.RegSecond, make([]byte, 1))
	},
}, {
	testName: "SetReg",
	op: func(d *ds1302.Device) error {
		return d.SetReg(ds1302.RegSecond, []byte{0})
	},
}, {
	testName: "ReadClockBurst",
	op: func(d *ds1302.Device) error {
		return d.ReadClockBurst(make([]byte, 8))
	},
}, {
	testName: "WriteClockBurst",
	op: func(d *ds1302.Device) error {
		return d.WriteClockBurst(make([]byte, 8))
	},
}, {
	testName: "ReadRAMBurst",
	op: func(d *ds1302.Device) error {
		return d.ReadRAMBurst(make([]byte, 31))
	},
}, {
	testName: "WriteRAMBurst",
	op: func(d *ds1302.Device) error {
		return d.WriteRAMBurst(make([]byte, 31))
	},
}, {
	testName: "ReadRAM",
	op: func(d *ds1302.Device) error {
		return d.ReadRAM(0, make([]byte, 1))
	},
}, {
	testName: "WriteRAM",
	op: func(d *ds1302.Device) error {
		return d.WriteRAM(0, []byte{1})
	},
}}

func TestNotInitialized(t *testing.T) {
	c := qt.New(t)
	for _, test := range notInitializedTests {
		c.Run(test.testName, func(c *qt.C) {
			chip := ds1302sim.New()
			d := ds1302.New(chip)
			err := test.op(d)
			c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrNotInitialized)
			c.Assert(chip.Trace(), qt.HasLen, 0)
		})
	}
}

func TestSetTimeGetTime(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	err := d.SetTime(ds1302.Time{
		Year:   2024,
		Month:  1,
		Date:   1,
		Format: ds1302.Format24H,
	})
	c.Assert(err, qt.IsNil)
	// The oscillator was halted at power on and stays halted.
	c.Assert(chip.Clock[:8], qt.DeepEquals, []byte{0x80, 0x00, 0x00, 0x01, 0x01, 0x01, 0x24, 0x00})

	got, err := d.ReadTime()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, ds1302.Time{
		Year:   2024,
		Month:  1,
		Week:   1,
		Date:   1,
		Format: ds1302.Format24H,
	})
}

func TestSetTime12H(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	tm := ds1302.Time{
		Year:   2023,
		Month:  12,
		Date:   31,
		Hour:   11,
		Minute: 59,
		Second: 58,
		Format: ds1302.Format12H,
		AMPM:   ds1302.PM,
	}
	c.Assert(d.SetTime(tm), qt.IsNil)
	c.Assert(chip.Clock[2], qt.Equals, byte(0xB1))
	c.Assert(chip.Clock[5], qt.Equals, byte(0x07))

	got, err := d.ReadTime()
	c.Assert(err, qt.IsNil)
	tm.Week = 7
	c.Assert(got, qt.Equals, tm)
	c.Assert(got.Hour24(), qt.Equals, 23)
}

func TestSetTimeKeepsFlags(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	chip.Clock[0] = 0x30
	chip.Clock[7] = 0x80

	err := d.SetTime(ds1302.Time{
		Year:   2099,
		Month:  12,
		Week:   4,
		Date:   31,
		Hour:   23,
		Minute: 59,
		Second: 59,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(chip.Clock[:8], qt.DeepEquals, []byte{0x59, 0x59, 0x23, 0x31, 0x12, 0x04, 0x99, 0x80})
	c.Assert(chip.WriteProtected(), qt.Equals, true)
}

func TestSetTimeWriteFailureRestoresWriteProtect(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	chip.Clock[7] = 0x80
	bursts := 0
	chip.Fail = func(call ds1302sim.Call, n int) error {
		if call.Op == ds1302sim.CEWrite && call.Level {
			bursts++
			// read burst, clear protect, write burst
			if bursts == 3 {
				return errgo.New("no chip")
			}
		}
		return nil
	}
	err := d.SetTime(ds1302.Time{Year: 2024, Month: 1, Date: 1})
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrHardwareIO)
	c.Assert(err, qt.ErrorMatches, `cannot write clock: .*no chip`)
	c.Assert(chip.WriteProtected(), qt.Equals, true)
	c.Assert(chip.CE(), qt.Equals, false)
}

var invalidTimeTests = []struct {
	testName    string
	time        ds1302.Time
	expectError string
}{{
	testName:    "year-too-small",
	time:        ds1302.Time{Year: 1999, Month: 1, Date: 1},
	expectError: `ds1302: year 1999 not in \[2000, 2099\]`,
}, {
	testName:    "year-too-large",
	time:        ds1302.Time{Year: 2100, Month: 1, Date: 1},
	expectError: `ds1302: year 2100 not in \[2000, 2099\]`,
}, {
	testName:    "month",
	time:        ds1302.Time{Year: 2024, Month: 13, Date: 1},
	expectError: `ds1302: month 13 not in \[1, 12\]`,
}, {
	testName:    "zero-date",
	time:        ds1302.Time{Year: 2024, Month: 1},
	expectError: `ds1302: date 0 not in \[1, 31\]`,
}, {
	testName:    "february",
	time:        ds1302.Time{Year: 2023, Month: 2, Date: 29},
	expectError: `ds1302: date 29 not in \[1, 28\]`,
}, {
	testName:    "week",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Week: 8},
	expectError: `ds1302: week 8 not in \[0, 7\]`,
}, {
	testName:    "hour-24h",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Hour: 24},
	expectError: `ds1302: hour 24 not in \[0, 23\]`,
}, {
	testName:    "hour-12h-zero",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Format: ds1302.Format12H},
	expectError: `ds1302: hour 0 not in \[1, 12\]`,
}, {
	testName:    "hour-12h",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Hour: 13, Format: ds1302.Format12H},
	expectError: `ds1302: hour 13 not in \[1, 12\]`,
}, {
	testName:    "ampm",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Hour: 1, Format: ds1302.Format12H, AMPM: 2},
	expectError: `ds1302: am/pm 2 invalid`,
}, {
	testName:    "minute",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Minute: 60},
	expectError: `ds1302: minute 60 not in \[0, 59\]`,
}, {
	testName:    "second",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Second: 60},
	expectError: `ds1302: second 60 not in \[0, 59\]`,
}, {
	testName:    "format",
	time:        ds1302.Time{Year: 2024, Month: 1, Date: 1, Format: 2},
	expectError: `ds1302: format 2 invalid`,
}}

func TestSetTimeInvalid(t *testing.T) {
	c := qt.New(t)
	for _, test := range invalidTimeTests {
		c.Run(test.testName, func(c *qt.C) {
			d, chip := newDevice(c)
			before := chip.Clock
			err := d.SetTime(test.time)
			c.Assert(err, qt.ErrorMatches, test.expectError)
			c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrValueRange)
			c.Assert(chip.Trace(), qt.HasLen, 0)
			c.Assert(chip.Clock, qt.Equals, before)
		})
	}
}

func TestReadTimeInvalid(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	chip.Clock[1] = 0x5A
	_, err := d.ReadTime()
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrValueRange)
	c.Assert(err, qt.ErrorMatches, `ds1302: register 1 holds 0x5a, not bcd`)

	chip.Clock[1] = 0x00
	chip.Clock[4] = 0x13
	_, err = d.ReadTime()
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrValueRange)
	c.Assert(err, qt.ErrorMatches, `ds1302: month 13 not in \[1, 12\]`)
}

func TestOscillator(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	chip.Clock[0] = 0x80 | 0x45

	on, err := d.Oscillator()
	c.Assert(err, qt.IsNil)
	c.Assert(on, qt.Equals, false)

	c.Assert(d.SetOscillator(true), qt.IsNil)
	c.Assert(chip.Clock[0], qt.Equals, byte(0x45))
	on, err = d.Oscillator()
	c.Assert(err, qt.IsNil)
	c.Assert(on, qt.Equals, true)

	c.Assert(d.SetOscillator(false), qt.IsNil)
	c.Assert(chip.Clock[0], qt.Equals, byte(0xC5))
}

func TestWriteProtect(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)

	c.Assert(d.SetWriteProtect(true), qt.IsNil)
	c.Assert(chip.Clock[7], qt.Equals, byte(0x80))
	wp, err := d.WriteProtect()
	c.Assert(err, qt.IsNil)
	c.Assert(wp, qt.Equals, true)

	c.Assert(d.SetWriteProtect(false), qt.IsNil)
	c.Assert(chip.Clock[7], qt.Equals, byte(0x00))
	wp, err = d.WriteProtect()
	c.Assert(err, qt.IsNil)
	c.Assert(wp, qt.Equals, false)
}

var protectedWriteTests = []struct {
	testName string
	write    func(d *ds1302.Device) error
	check    func(c *qt.C, chip *ds1302sim.Chip)
	expectWP bool
}{{
	testName: "ram",
	write: func(d *ds1302.Device) error {
		return d.WriteRAM(3, []byte{0x55, 0xAA})
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.RAM[3:5], qt.DeepEquals, []byte{0x55, 0xAA})
	},
	expectWP: true,
}, {
	testName: "ram-burst",
	write: func(d *ds1302.Device) error {
		return d.WriteRAMBurst([]byte{1, 2, 3})
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.RAM[:3], qt.DeepEquals, []byte{1, 2, 3})
	},
	expectWP: true,
}, {
	testName: "charge",
	write: func(d *ds1302.Device) error {
		return d.SetCharge(ds1302.Charge1Diode4K)
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.Clock[8], qt.Equals, byte(0xA6))
	},
	expectWP: true,
}, {
	testName: "oscillator",
	write: func(d *ds1302.Device) error {
		return d.SetOscillator(true)
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.Clock[0], qt.Equals, byte(0x00))
	},
	expectWP: true,
}, {
	testName: "register",
	write: func(d *ds1302.Device) error {
		return d.SetReg(ds1302.RegMinute, []byte{0x12})
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.Clock[1], qt.Equals, byte(0x12))
	},
	expectWP: true,
}, {
	testName: "registers-through-control",
	write: func(d *ds1302.Device) error {
		return d.SetReg(ds1302.RegYear, []byte{0x24, 0x00})
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.Clock[6], qt.Equals, byte(0x24))
	},
	expectWP: false,
}, {
	testName: "partial-clock-burst",
	write: func(d *ds1302.Device) error {
		return d.WriteClockBurst([]byte{0x10, 0x20})
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.Clock[:2], qt.DeepEquals, []byte{0x10, 0x20})
	},
	expectWP: true,
}, {
	testName: "full-clock-burst",
	write: func(d *ds1302.Device) error {
		return d.WriteClockBurst([]byte{0x00, 0x00, 0x12, 0x01, 0x01, 0x01, 0x24, 0x00})
	},
	check: func(c *qt.C, chip *ds1302sim.Chip) {
		c.Assert(chip.Clock[2], qt.Equals, byte(0x12))
	},
	expectWP: false,
}}

func TestWritesUnderWriteProtect(t *testing.T) {
	c := qt.New(t)
	for _, test := range protectedWriteTests {
		c.Run(test.testName, func(c *qt.C) {
			d, chip := newDevice(c)
			chip.Clock[7] = 0x80
			c.Assert(test.write(d), qt.IsNil)
			test.check(c, chip)
			c.Assert(chip.WriteProtected(), qt.Equals, test.expectWP)
			c.Assert(chip.CE(), qt.Equals, false)
		})
	}
}

func TestCharge(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)

	got, err := d.Charge()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, ds1302.ChargeDisabled)

	c.Assert(d.SetCharge(ds1302.Charge2Diode2K), qt.IsNil)
	c.Assert(chip.Clock[8], qt.Equals, byte(0xA9))
	got, err = d.Charge()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, ds1302.Charge2Diode2K)

	for ch := ds1302.ChargeDisabled; ch <= ds1302.Charge2Diode8K; ch++ {
		c.Assert(d.SetCharge(ch), qt.IsNil)
		got, err := d.Charge()
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, ch)
	}
	c.Assert(chip.Clock[8], qt.Equals, byte(0xAB))

	err = d.SetCharge(ds1302.Charge(7))
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrParameter)
}

func TestChargeDecode(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	for v, want := range map[byte]ds1302.Charge{
		0x5C: ds1302.ChargeDisabled,
		0x00: ds1302.ChargeDisabled,
		0xA4: ds1302.ChargeDisabled,
		0xAD: ds1302.ChargeDisabled,
		0xA5: ds1302.Charge1Diode2K,
		0xAA: ds1302.Charge2Diode4K,
		0xB5: ds1302.ChargeDisabled,
	} {
		chip.Clock[8] = v
		got, err := d.Charge()
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, want, qt.Commentf("register 0x%02x", v))
	}
}

func TestNowSet(t *testing.T) {
	c := qt.New(t)
	d, chip := newDevice(c)
	zone := time.FixedZone("UTC+2", 2*60*60)
	d.Configure(ds1302.Config{TimeZone: zone})
	c.Assert(d.TimeZone(), qt.Equals, zone)

	c.Assert(d.Set(time.Date(2024, 2, 29, 23, 59, 59, 600e6, time.UTC)), qt.IsNil)
	c.Assert(chip.Clock[1:7], qt.DeepEquals, []byte{0x00, 0x02, 0x01, 0x03, 0x05, 0x24})

	now, err := d.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(now.Location(), qt.Equals, zone)
	c.Assert(now.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)), qt.Equals, true, qt.Commentf("now %v", now))
}

func TestSetOutOfRange(t *testing.T) {
	c := qt.New(t)
	d, _ := newDevice(c)
	err := d.Set(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Assert(errgo.Cause(err), qt.Equals, ds1302.ErrValueRange)
}

func TestConfigureDefaults(t *testing.T) {
	c := qt.New(t)
	d := ds1302.New(ds1302sim.New())
	c.Assert(d.TimeZone(), qt.Equals, time.UTC)
	d.Configure(ds1302.Config{})
	c.Assert(d.TimeZone(), qt.Equals, time.UTC)
}

func TestChipInfo(t *testing.T) {
	c := qt.New(t)
	info := ds1302.ChipInfo()
	c.Assert(info.ChipName, qt.Equals, "Maxim Integrated DS1302")
	c.Assert(info.Interface, qt.Equals, "GPIO")
	c.Assert(info.SupplyVoltageMinV, qt.Equals, float32(2.0))
	c.Assert(info.SupplyVoltageMaxV, qt.Equals, float32(5.5))
	c.Assert(info.TemperatureMin, qt.Equals, float32(-40))
	c.Assert(info.TemperatureMax, qt.Equals, float32(85))
	c.Assert(info.DriverVersion, qt.Equals, uint32(1000))
}
