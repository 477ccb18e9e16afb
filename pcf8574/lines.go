package pcf8574

import (
	"github.com/libdriver/drivers"
)

// Lines drives the CE, SCLK and IO lines of a three-wire chip from three
// expander pins. It implements ds1302.Bus.
//
// The pins are quasi-bidirectional, so IO needs no direction switch: after
// the host writes IO high the chip can pull it low. The chip must tolerate
// the weak pullup on its IO pin, which the DS1302 does. Deinit leaves CE and
// SCLK low so the chip stays disabled, and releases IO by setting it high.
type Lines struct {
	drivers.Sleep

	Dev  *Device
	CE   uint8
	SCLK uint8
	Data uint8
}

// NewLines returns the lines on the default pins: CE on P0, SCLK on P1 and IO
// on P2.
func NewLines(dev *Device) *Lines {
	return &Lines{
		Dev:  dev,
		CE:   0,
		SCLK: 1,
		Data: 2,
	}
}

func (l *Lines) CEInit() error             { return l.Dev.SetPin(l.CE, false) }
func (l *Lines) CEDeinit() error           { return l.Dev.SetPin(l.CE, false) }
func (l *Lines) CEWrite(high bool) error   { return l.Dev.SetPin(l.CE, high) }
func (l *Lines) SCLKInit() error           { return l.Dev.SetPin(l.SCLK, false) }
func (l *Lines) SCLKDeinit() error         { return l.Dev.SetPin(l.SCLK, false) }
func (l *Lines) SCLKWrite(high bool) error { return l.Dev.SetPin(l.SCLK, high) }
func (l *Lines) IOInit() error             { return l.Dev.SetPin(l.Data, false) }
func (l *Lines) IODeinit() error           { return l.Dev.SetPin(l.Data, true) }
func (l *Lines) IOWrite(high bool) error   { return l.Dev.SetPin(l.Data, high) }

// IORead releases IO if the host is holding it low and samples it.
func (l *Lines) IORead() (bool, error) {
	if l.Dev.State()&(1<<l.Data) == 0 {
		if err := l.Dev.SetPin(l.Data, true); err != nil {
			return false, err
		}
	}
	r, err := l.Dev.Read()
	if err != nil {
		return false, err
	}
	return r.Pin(l.Data), nil
}
