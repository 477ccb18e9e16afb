// Package drivers holds the bus contracts shared by the chip and adapter
// packages in this repository.
//
// Chip drivers accept one of these interfaces rather than a concrete bus so the
// same driver runs against real hardware, a USB bridge or a simulation.
package drivers

import "time"

// I2C represents an I2C bus. It is notably implemented by the i2cdev package
// on Linux hosts.
type I2C interface {
	ReadRegister(addr uint8, r uint8, buf []byte) error
	WriteRegister(addr uint8, r uint8, buf []byte) error
	Tx(addr uint16, w, r []byte) error
}

// Sleep provides the delay primitives expected by bit-banged protocols on top
// of time.Sleep. Host adapters embed it. Delays are at least as long as
// requested and may be much longer.
type Sleep struct{}

// DelayMs blocks for ms milliseconds.
func (Sleep) DelayMs(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// DelayUs blocks for us microseconds.
func (Sleep) DelayUs(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}
