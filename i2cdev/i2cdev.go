// Package i2cdev implements drivers.I2C on top of golang.org/x/exp/io/i2c,
// for hosts that expose their I2C controllers through the Linux i2c-dev
// interface ("/dev/i2c-N").
package i2cdev

import (
	"sync"

	"golang.org/x/exp/io/i2c"
	"golang.org/x/exp/io/i2c/driver"
	errgo "gopkg.in/errgo.v1"
)

// Bus is an I2C bus. A connection is opened for each peripheral address the
// first time it is used and kept until Close. Bus is safe for concurrent use.
type Bus struct {
	o driver.Opener

	mu   sync.Mutex
	devs map[uint16]*i2c.Device
}

// New returns a bus that opens peripherals with o.
func New(o driver.Opener) *Bus {
	return &Bus{
		o:    o,
		devs: make(map[uint16]*i2c.Device),
	}
}

// Open returns the bus behind the i2c-dev device file at path, such as
// "/dev/i2c-1". Nothing is opened until the first transfer.
func Open(path string) *Bus {
	return New(&i2c.Devfs{Dev: path})
}

func (b *Bus) device(addr uint16) (*i2c.Device, error) {
	if d, ok := b.devs[addr]; ok {
		return d, nil
	}
	d, err := i2c.Open(b.o, int(addr))
	if err != nil {
		return nil, errgo.Notef(err, "cannot open i2c address 0x%02x", addr)
	}
	b.devs[addr] = d
	return d, nil
}

// ReadRegister reads len(buf) bytes from register r of the peripheral at
// addr.
func (b *Bus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.device(uint16(addr))
	if err != nil {
		return errgo.Mask(err)
	}
	if err := d.ReadReg(r, buf); err != nil {
		return errgo.Notef(err, "cannot read register 0x%02x at 0x%02x", r, addr)
	}
	return nil
}

// WriteRegister writes buf to register r of the peripheral at addr.
func (b *Bus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.device(uint16(addr))
	if err != nil {
		return errgo.Mask(err)
	}
	if err := d.WriteReg(r, buf); err != nil {
		return errgo.Notef(err, "cannot write register 0x%02x at 0x%02x", r, addr)
	}
	return nil
}

// Tx writes w and then reads len(r) bytes from the peripheral at addr.
// Either may be empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.device(addr)
	if err != nil {
		return errgo.Mask(err)
	}
	if len(w) > 0 {
		if err := d.Write(w); err != nil {
			return errgo.Notef(err, "cannot write to 0x%02x", addr)
		}
	}
	if len(r) > 0 {
		if err := d.Read(r); err != nil {
			return errgo.Notef(err, "cannot read from 0x%02x", addr)
		}
	}
	return nil
}

// Close closes every connection opened by the bus and returns the first
// error.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for addr, d := range b.devs {
		if err := d.Close(); err != nil && first == nil {
			first = errgo.Notef(err, "cannot close 0x%02x", addr)
		}
		delete(b.devs, addr)
	}
	return first
}
