package ds1302

import (
	"go.uber.org/zap"
)

// GetReg reads len(buf) consecutive registers starting at reg, one transfer
// per register. reg + 2*i addresses the i'th register. Use the burst
// operations to read a consistent snapshot.
func (d *Device) GetReg(reg Register, buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if err := checkRange(reg, len(buf)); err != nil {
		return err
	}
	return d.readRegs(reg, buf)
}

// SetReg writes buf to consecutive registers starting at reg, one transfer
// per register. Write protect is cleared for the duration of the write and
// restored afterwards, unless the written range includes the control register,
// in which case the written control value stands.
func (d *Device) SetReg(reg Register, buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if err := checkRange(reg, len(buf)); err != nil {
		return err
	}
	touchesControl := !reg.ram() && reg <= RegControl && int(reg.index())+len(buf) > int(RegControl.index())
	return d.unprotected(!touchesControl, func() error {
		return d.writeRegs(reg, buf)
	})
}

// ReadClockBurst reads up to eight clock registers, starting with seconds, in
// a single transfer. The chip latches the time when the transfer starts, so
// the fields are consistent with each other.
func (d *Device) ReadClockBurst(buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if len(buf) == 0 || len(buf) > ClockBurstSize {
		return paramError("clock burst length %d not in [1, %d]", len(buf), ClockBurstSize)
	}
	return d.transfer(RegClockBurst, nil, buf)
}

// WriteClockBurst writes up to eight clock registers, starting with seconds,
// in a single transfer. The eighth byte is the control register; when it is
// present it decides the final write protect state.
func (d *Device) WriteClockBurst(buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if len(buf) == 0 || len(buf) > ClockBurstSize {
		return paramError("clock burst length %d not in [1, %d]", len(buf), ClockBurstSize)
	}
	return d.unprotected(len(buf) < ClockBurstSize, func() error {
		return d.transfer(RegClockBurst, buf, nil)
	})
}

// ReadRAMBurst reads up to 31 bytes of RAM, starting at address 0, in a
// single transfer.
func (d *Device) ReadRAMBurst(buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if len(buf) == 0 || len(buf) > RAMSize {
		return paramError("ram burst length %d not in [1, %d]", len(buf), RAMSize)
	}
	return d.transfer(RegRAMBurst, nil, buf)
}

// WriteRAMBurst writes up to 31 bytes of RAM, starting at address 0, in a
// single transfer.
func (d *Device) WriteRAMBurst(buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if len(buf) == 0 || len(buf) > RAMSize {
		return paramError("ram burst length %d not in [1, %d]", len(buf), RAMSize)
	}
	return d.unprotected(true, func() error {
		return d.transfer(RegRAMBurst, buf, nil)
	})
}

// ReadRAM reads len(buf) bytes of RAM starting at addr.
func (d *Device) ReadRAM(addr uint8, buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if err := checkRAM(addr, len(buf)); err != nil {
		return err
	}
	return d.readRegs(RegRAM+Register(addr<<1), buf)
}

// WriteRAM writes buf to RAM starting at addr.
func (d *Device) WriteRAM(addr uint8, buf []byte) error {
	if !d.inited {
		return errNotInitialized
	}
	if err := checkRAM(addr, len(buf)); err != nil {
		return err
	}
	return d.unprotected(true, func() error {
		return d.writeRegs(RegRAM+Register(addr<<1), buf)
	})
}

func checkRAM(addr uint8, n int) error {
	if addr >= RAMSize {
		return paramError("ram address %d > %d", addr, RAMSize-1)
	}
	if n == 0 || int(addr)+n > RAMSize {
		return paramError("ram length %d invalid at address %d", n, addr)
	}
	return nil
}

func checkRange(reg Register, n int) error {
	if reg&(cmdEnable|cmdRead) != 0 {
		return paramError("register 0x%02x has command bits set", uint8(reg))
	}
	if reg.burst() {
		return paramError("register 0x%02x is a burst address", uint8(reg))
	}
	if n == 0 || int(reg.index())+n > reg.bankSize() {
		return paramError("%d registers from 0x%02x overrun the bank", n, uint8(reg))
	}
	return nil
}

func (d *Device) readReg(reg Register) (uint8, error) {
	var buf [1]byte
	err := d.transfer(reg, nil, buf[:])
	return buf[0], err
}

func (d *Device) writeReg(reg Register, val uint8) error {
	buf := [1]byte{val}
	return d.transfer(reg, buf[:], nil)
}

func (d *Device) readRegs(reg Register, buf []byte) error {
	for i := range buf {
		if err := d.transfer(reg+Register(i<<1), nil, buf[i:i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) writeRegs(reg Register, buf []byte) error {
	for i := range buf {
		if err := d.transfer(reg+Register(i<<1), buf[i:i+1], nil); err != nil {
			return err
		}
	}
	return nil
}

// unprotected runs write with the write protect bit cleared. If the bit was
// set and restore is true it is set again afterwards, even when write fails.
func (d *Device) unprotected(restore bool, write func() error) error {
	ctrl, err := d.readReg(RegControl)
	if err != nil {
		return err
	}
	if ctrl&bitWriteProtect == 0 {
		return write()
	}
	d.log.Debug("clearing write protect", zap.Bool("restore", restore))
	if err := d.writeReg(RegControl, ctrl&^bitWriteProtect); err != nil {
		return err
	}
	werr := write()
	if !restore {
		return werr
	}
	if err := d.writeReg(RegControl, ctrl); err != nil && werr == nil {
		return err
	}
	return werr
}
