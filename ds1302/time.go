package ds1302

import (
	"fmt"
	"time"
)

// Format selects how the hour is kept by the chip.
type Format uint8

const (
	Format24H Format = 0
	Format12H Format = 1
)

func (f Format) String() string {
	switch f {
	case Format24H:
		return "24h"
	case Format12H:
		return "12h"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// AMPM is the half of the day in 12h format.
type AMPM uint8

const (
	AM AMPM = 0
	PM AMPM = 1
)

func (p AMPM) String() string {
	if p == PM {
		return "PM"
	}
	return "AM"
}

// century holds the current century - the DS1302 keeps a two digit year.
const century = 2000

// Time is the calendar time as kept by the chip.
//
// Week is the day of the week, Monday=1 through Sunday=7. Zero asks SetTime
// to derive it from the date. In 24h format AMPM is always AM.
type Time struct {
	Year   uint16
	Month  uint8
	Week   uint8
	Date   uint8
	Hour   uint8
	Minute uint8
	Second uint8
	Format Format
	AMPM   AMPM
}

// ClockRegisters is the image of the eight registers covered by a clock
// burst: seconds, minutes, hours, date, month, day, year and control.
type ClockRegisters [ClockBurstSize]byte

// Halted reports whether the clock halt flag is set, that is whether the
// oscillator is stopped.
func (r ClockRegisters) Halted() bool {
	return r[0]&bitHalt != 0
}

// WriteProtected reports whether the write protect flag is set.
func (r ClockRegisters) WriteProtected() bool {
	return r[7]&bitWriteProtect != 0
}

// Validate checks every field of t against the range the chip can hold.
func (t Time) Validate() error {
	switch {
	case t.Year < century || t.Year > century+99:
		return rangeError("year %d not in [%d, %d]", t.Year, century, century+99)
	case t.Month < 1 || t.Month > 12:
		return rangeError("month %d not in [1, 12]", t.Month)
	case t.Week > 7:
		return rangeError("week %d not in [0, 7]", t.Week)
	case t.Date < 1 || int(t.Date) > daysIn(time.Month(t.Month), int(t.Year)):
		return rangeError("date %d not in [1, %d]", t.Date, daysIn(time.Month(t.Month), int(t.Year)))
	case t.Minute > 59:
		return rangeError("minute %d not in [0, 59]", t.Minute)
	case t.Second > 59:
		return rangeError("second %d not in [0, 59]", t.Second)
	}
	switch t.Format {
	case Format24H:
		if t.Hour > 23 {
			return rangeError("hour %d not in [0, 23]", t.Hour)
		}
	case Format12H:
		if t.Hour < 1 || t.Hour > 12 {
			return rangeError("hour %d not in [1, 12]", t.Hour)
		}
		if t.AMPM != AM && t.AMPM != PM {
			return rangeError("am/pm %d invalid", t.AMPM)
		}
	default:
		return rangeError("format %d invalid", t.Format)
	}
	return nil
}

// EncodeTime packs t into a clock register image. The clock halt flag and the
// control register are taken from prev so that setting the time neither
// starts nor stops the oscillator and leaves write protect as it was.
func EncodeTime(t Time, prev ClockRegisters) (ClockRegisters, error) {
	if err := t.Validate(); err != nil {
		return ClockRegisters{}, err
	}
	week := t.Week
	if week == 0 {
		week = weekday(t.Year, t.Month, t.Date)
	}
	hour := decToBcd(t.Hour)
	if t.Format == Format12H {
		hour |= bit12Hour
		if t.AMPM == PM {
			hour |= bitPM
		}
	}
	return ClockRegisters{
		decToBcd(t.Second) | prev[0]&bitHalt,
		decToBcd(t.Minute),
		hour,
		decToBcd(t.Date),
		decToBcd(t.Month),
		decToBcd(week),
		decToBcd(uint8(t.Year - century)),
		prev[7],
	}, nil
}

// DecodeTime unpacks a clock register image. The clock halt flag and the
// control register are ignored.
func DecodeTime(raw ClockRegisters) (Time, error) {
	for i, b := range raw[:7] {
		if !validBcd(b &^ masks[i]) {
			return Time{}, rangeError("register %d holds 0x%02x, not bcd", i, b)
		}
	}
	t := Time{
		Year:   uint16(bcdToDec(raw[6])) + century,
		Month:  bcdToDec(raw[4] & 0x1F),
		Week:   bcdToDec(raw[5] & 0x07),
		Date:   bcdToDec(raw[3] & 0x3F),
		Minute: bcdToDec(raw[1] & 0x7F),
		Second: bcdToDec(raw[0] & 0x7F),
	}
	if raw[2]&bit12Hour != 0 {
		t.Format = Format12H
		if raw[2]&bitPM != 0 {
			t.AMPM = PM
		}
		t.Hour = bcdToDec(raw[2] & 0x1F)
	} else {
		t.Format = Format24H
		t.Hour = bcdToDec(raw[2] & 0x3F)
	}
	if err := t.Validate(); err != nil {
		return Time{}, err
	}
	return t, nil
}

// masks holds the non-bcd bits of each time register.
var masks = [7]uint8{
	bitHalt,
	0x80,
	bit12Hour | 0x40,
	0xC0,
	0xE0,
	0xF8,
	0x00,
}

// TimeOf returns t as a 24h format Time. The year must be in the range the
// chip can hold for the result to be valid.
func TimeOf(t time.Time) Time {
	week := uint8(t.Weekday())
	if week == 0 {
		week = 7
	}
	return Time{
		Year:   uint16(t.Year()),
		Month:  uint8(t.Month()),
		Week:   week,
		Date:   uint8(t.Day()),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
		Format: Format24H,
	}
}

// Hour24 returns the hour of the day in [0, 23] whatever the format.
func (t Time) Hour24() int {
	if t.Format == Format12H {
		return int(t.Hour%12) + int(t.AMPM)*12
	}
	return int(t.Hour)
}

// In returns t as a time.Time in loc.
func (t Time) In(loc *time.Location) time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Date), t.Hour24(), int(t.Minute), int(t.Second), 0, loc)
}

// String formats t as "2006-01-02 15:04:05 w", or "2006-01-02 PM 03:04:05 w"
// in 12h format, where w is the day of the week.
func (t Time) String() string {
	if t.Format == Format12H {
		return fmt.Sprintf("%04d-%02d-%02d %s %02d:%02d:%02d %d", t.Year, t.Month, t.Date, t.AMPM, t.Hour, t.Minute, t.Second, t.Week)
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d %d", t.Year, t.Month, t.Date, t.Hour, t.Minute, t.Second, t.Week)
}

// weekday returns the day of the week of a date, Monday=1 through Sunday=7.
func weekday(year uint16, month, date uint8) uint8 {
	w := uint8(time.Date(int(year), time.Month(month), int(date), 0, 0, 0, 0, time.UTC).Weekday())
	if w == 0 {
		return 7
	}
	return w
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// decToBcd converts a value in [0, 99] to BCD.
func decToBcd(dec uint8) uint8 {
	return dec + 6*(dec/10)
}

// bcdToDec converts BCD to its value.
func bcdToDec(bcd uint8) uint8 {
	return bcd - 6*(bcd>>4)
}

func validBcd(b uint8) bool {
	return b&0x0F <= 9 && b>>4 <= 9
}
