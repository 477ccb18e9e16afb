package ds1302

import (
	"go.uber.org/zap"
)

// transfer runs one CE window: the command byte for reg, then either the
// bytes of w (write) or len(r) bytes sampled into r (read). CE is driven low
// again on every path.
func (d *Device) transfer(reg Register, w, r []byte) (err error) {
	read := r != nil
	if err := d.bus.CEWrite(true); err != nil {
		d.release(false)
		return ioError(err, "set ce high")
	}
	input := false
	defer func() {
		if err != nil {
			d.log.Debug("transfer failed", zap.Uint8("reg", uint8(reg)), zap.Bool("read", read), zap.Error(err))
			d.release(input)
			return
		}
		err = d.finish(read, input)
	}()

	if err := d.writeByte(reg.command(read)); err != nil {
		return err
	}
	if !read {
		for _, b := range w {
			if err := d.writeByte(b); err != nil {
				return err
			}
		}
		return nil
	}
	if ds, ok := d.bus.(DirectionSetter); ok {
		if err := ds.IODirection(false); err != nil {
			return ioError(err, "set io input")
		}
		input = true
	}
	for i := range r {
		b, err := d.readByte()
		if err != nil {
			return err
		}
		r[i] = b
	}
	return nil
}

// finish closes a successful window. A write leaves IO low, a read hands IO
// back to the host before CE drops.
func (d *Device) finish(read, input bool) error {
	if input {
		if err := d.bus.(DirectionSetter).IODirection(true); err != nil {
			d.release(false)
			return ioError(err, "set io output")
		}
	}
	if !read {
		if err := d.bus.IOWrite(false); err != nil {
			d.release(false)
			return ioError(err, "set io low")
		}
	}
	if err := d.bus.CEWrite(false); err != nil {
		return ioError(err, "set ce low")
	}
	return nil
}

// release returns the lines to idle after a failure. Errors are ignored.
func (d *Device) release(input bool) {
	_ = d.bus.CEWrite(false)
	_ = d.bus.SCLKWrite(false)
	if input {
		_ = d.bus.(DirectionSetter).IODirection(true)
	}
}

// writeByte shifts b out least significant bit first. The chip latches IO on
// the rising edge of SCLK.
func (d *Device) writeByte(b uint8) error {
	for i := 0; i < 8; i++ {
		if err := d.bus.IOWrite(b&0x01 != 0); err != nil {
			return ioError(err, "write io")
		}
		b >>= 1
		d.bus.DelayUs(1)
		if err := d.pulse(); err != nil {
			return err
		}
	}
	return nil
}

// readByte samples IO eight times, least significant bit first. The chip
// drives the next bit on each falling edge of SCLK.
func (d *Device) readByte() (uint8, error) {
	var b uint8
	for i := 0; i < 8; i++ {
		b >>= 1
		level, err := d.bus.IORead()
		if err != nil {
			return 0, ioError(err, "read io")
		}
		if level {
			b |= 0x80
		}
		if err := d.pulse(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

func (d *Device) pulse() error {
	if err := d.bus.SCLKWrite(true); err != nil {
		return ioError(err, "set sclk high")
	}
	d.bus.DelayUs(1)
	if err := d.bus.SCLKWrite(false); err != nil {
		return ioError(err, "set sclk low")
	}
	return nil
}
