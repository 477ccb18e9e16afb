package ds1302

import (
	"time"

	errgo "gopkg.in/errgo.v1"
)

// Now returns the chip time as a time.Time in the configured time zone,
// accurate to the second.
func (d *Device) Now() (time.Time, error) {
	t, err := d.ReadTime()
	if err != nil {
		return time.Time{}, errgo.Mask(err, errgo.Any)
	}
	return t.In(d.loc), nil
}

// Set sets the chip time from t, converted to the configured time zone and
// rounded to the nearest second. The chip is switched to 24h format.
func (d *Device) Set(t time.Time) error {
	if t.Nanosecond() >= 0.5e9 {
		t = t.Add(time.Second)
	}
	return errgo.Mask(d.SetTime(TimeOf(t.In(d.loc))), errgo.Any)
}

// TimeZone returns the configured time zone.
func (d *Device) TimeZone() *time.Location {
	return d.loc
}
