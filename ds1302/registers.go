package ds1302

// Register is a register in the DS1302 command space: bit 6 selects the RAM
// bank, bits 1-5 hold the address. Bit 7 (command enable) and bit 0 (read) are
// added by the transport.
type Register uint8

const (
	RegSecond     Register = 0 << 1 // seconds, bit 7 is the clock halt flag
	RegMinute     Register = 1 << 1
	RegHour       Register = 2 << 1 // bit 7 selects 12h mode, bit 5 is AM/PM in 12h mode
	RegDate       Register = 3 << 1
	RegMonth      Register = 4 << 1
	RegDay        Register = 5 << 1 // day of week
	RegYear       Register = 6 << 1
	RegControl    Register = 7 << 1 // bit 7 is write protect
	RegCharge     Register = 8 << 1 // trickle charger
	RegClockBurst Register = 0x1F << 1

	RegRAM      Register = 1 << 6
	RegRAMBurst Register = RegRAM | RegClockBurst
)

// Command byte bits.
const (
	cmdEnable = 1 << 7
	cmdRead   = 1 << 0
)

const (
	// RAMSize is the number of bytes of battery backed scratch RAM.
	RAMSize = 31

	// ClockBurstSize is the number of registers covered by a clock burst.
	ClockBurstSize = 8

	clockRegisters = 9 // seconds through trickle charger
)

const (
	bitHalt         = 1 << 7 // RegSecond
	bitWriteProtect = 1 << 7 // RegControl
	bit12Hour       = 1 << 7 // RegHour
	bitPM           = 1 << 5 // RegHour in 12h mode
)

func (r Register) ram() bool {
	return r&RegRAM != 0
}

func (r Register) index() uint8 {
	return uint8(r>>1) & 0x1F
}

func (r Register) burst() bool {
	return r.index() == 0x1F
}

func (r Register) command(read bool) uint8 {
	c := cmdEnable | uint8(r)&^cmdRead
	if read {
		c |= cmdRead
	}
	return c
}

// bankSize returns the number of addressable single registers in the bank r
// belongs to.
func (r Register) bankSize() int {
	if r.ram() {
		return RAMSize
	}
	return clockRegisters
}
