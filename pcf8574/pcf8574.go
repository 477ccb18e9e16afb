// Package pcf8574 is a driver for the PCF8574 I2C GPIO expander.
//
// This expander is somewhat limited: Each pin can be set to either high (with a weak pullup) or low (grounded), as well
// as read. To use a pin for input, set it to "high" and check to see if something is forcing it to be low. To use a pin
// for output, they can sink a small amount of current when set to "low".
//
// Lines uses three pins of the expander as the CE, SCLK and IO lines of a three-wire chip such as the DS1302.
//
// Datasheet: https://cdn-learn.adafruit.com/assets/assets/000/113/910/original/pcf8574.pdf
package pcf8574

import (
	errgo "gopkg.in/errgo.v1"

	"github.com/libdriver/drivers"
)

const DefaultAddress = 0x20

type Device struct {
	bus  drivers.I2C
	addr uint16
	// current state of pins as we've defined them
	state uint8
}

type Config struct {
	Address uint8
}

type Report uint8

// New creates a new driver on the specified I2C bus. The datasheet claims a maximum speed of 100 kHz.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:  bus,
		addr: DefaultAddress,
		// defaults to everything high
		state: 0xFF,
	}
}

func (d *Device) Configure(c Config) {
	if c.Address == 0 {
		c.Address = DefaultAddress
	}
	d.addr = uint16(c.Address)
}

// SetPin configures a single pin based on val: True to activate the weak pullup resistor, false to sink current.
func (d *Device) SetPin(pin uint8, val bool) error {
	if pin > 7 {
		return errgo.Newf("pcf8574: no such pin %d", pin)
	}
	state := d.state &^ (1 << pin)
	if val {
		state |= 1 << pin
	}
	return d.SetAll(state)
}

// SetAll configures all pins at once based on their bit in state: True to activate the weak pullup resistor, false to sink current.
func (d *Device) SetAll(state uint8) error {
	if err := d.bus.Tx(d.addr, []byte{state}, nil); err != nil {
		return errgo.Notef(err, "pcf8574: cannot write pins")
	}
	d.state = state
	return nil
}

// State returns the pin configuration last written.
func (d *Device) State() uint8 {
	return d.state
}

// Read reads the status of every pin and returns a Report which can be used to check specific pins.
func (d *Device) Read() (Report, error) {
	var buf [1]byte
	// the chip doesn't have any registers and just returns the data directly when read
	if err := d.bus.Tx(d.addr, nil, buf[:]); err != nil {
		return 0, errgo.Notef(err, "pcf8574: cannot read pins")
	}
	return Report(buf[0]), nil
}

// Pin reports whether the specified pin is high.
func (r Report) Pin(p uint8) bool {
	return r&(1<<p) > 0
}
