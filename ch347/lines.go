package ch347

import (
	"github.com/libdriver/drivers"
)

// Lines drives the CE, SCLK and IO lines of a three-wire chip from three
// CH347 pins. It implements ds1302.Bus and ds1302.DirectionSetter.
//
// Deinit switches a pin back to input, leaving the line floating.
type Lines struct {
	drivers.Sleep

	IO   *IO
	CE   Pin
	SCLK Pin
	Data Pin
}

// NewLines returns the lines on the default pins: CE on GPIO5, SCLK on GPIO0
// and IO on GPIO1.
func NewLines(io *IO) *Lines {
	return &Lines{
		IO:   io,
		CE:   GPIO5,
		SCLK: GPIO0,
		Data: GPIO1,
	}
}

func (l *Lines) CEInit() error             { return l.IO.WritePin(l.CE, true, false) }
func (l *Lines) CEDeinit() error           { return l.IO.WritePin(l.CE, false, false) }
func (l *Lines) CEWrite(high bool) error   { return l.IO.WritePin(l.CE, true, high) }
func (l *Lines) SCLKInit() error           { return l.IO.WritePin(l.SCLK, true, false) }
func (l *Lines) SCLKDeinit() error         { return l.IO.WritePin(l.SCLK, false, false) }
func (l *Lines) SCLKWrite(high bool) error { return l.IO.WritePin(l.SCLK, true, high) }
func (l *Lines) IOInit() error             { return l.IO.WritePin(l.Data, true, false) }
func (l *Lines) IODeinit() error           { return l.IO.WritePin(l.Data, false, false) }
func (l *Lines) IOWrite(high bool) error   { return l.IO.WritePin(l.Data, true, high) }
func (l *Lines) IORead() (bool, error)     { return l.IO.ReadPin(l.Data) }

// IODirection switches the IO pin between driving low and input.
func (l *Lines) IODirection(output bool) error {
	return l.IO.WritePin(l.Data, output, false)
}
