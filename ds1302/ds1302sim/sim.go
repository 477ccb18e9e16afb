// Package ds1302sim simulates a DS1302 at the level of its three lines. A
// Chip implements ds1302.Bus: it decodes the command and data bits clocked in
// on SCLK, answers reads on the IO line and keeps the clock registers, the
// trickle charger and the RAM in memory. Time does not advance.
//
// Every line operation is recorded so tests can check the exact sequence the
// driver produced, and Fail can make any operation return an error.
package ds1302sim

import (
	"fmt"
	"time"
)

// Op identifies a line operation.
type Op uint8

const (
	CEInit Op = iota
	CEDeinit
	CEWrite
	SCLKInit
	SCLKDeinit
	SCLKWrite
	IOInit
	IODeinit
	IOWrite
	IORead
	IODirection
)

var opNames = [...]string{
	CEInit:      "CEInit",
	CEDeinit:    "CEDeinit",
	CEWrite:     "CEWrite",
	SCLKInit:    "SCLKInit",
	SCLKDeinit:  "SCLKDeinit",
	SCLKWrite:   "SCLKWrite",
	IOInit:      "IOInit",
	IODeinit:    "IODeinit",
	IOWrite:     "IOWrite",
	IORead:      "IORead",
	IODirection: "IODirection",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Call is one recorded line operation. Level is the level written, the level
// read, or true for output in IODirection.
type Call struct {
	Op    Op
	Level bool
}

func (c Call) String() string {
	switch c.Op {
	case CEWrite, SCLKWrite, IOWrite, IORead, IODirection:
		return fmt.Sprintf("%v(%v)", c.Op, c.Level)
	}
	return c.Op.String() + "()"
}

type phase uint8

const (
	idle phase = iota
	command
	writing
	reading
	ignoring
)

const (
	ramSize        = 31
	clockRegisters = 9
	clockBurst     = 8
	burstAddr      = 0x1F
)

// Chip is a simulated DS1302.
type Chip struct {
	// Clock holds seconds, minutes, hours, date, month, day, year, control
	// and trickle charge.
	Clock [clockRegisters]byte
	RAM   [ramSize]byte

	// Fail is called before every line operation with the operation and its
	// index in the trace. A non-nil result is returned by the operation,
	// which then has no effect.
	Fail func(c Call, n int) error

	// Elapsed is the total time requested through the delay operations.
	Elapsed time.Duration

	trace []Call

	ce, sclk bool
	output   bool // host drives IO
	hostIO   bool
	chipIO   bool

	phase   phase
	shift   uint8
	nbits   int
	ram     bool
	burst   bool
	addr    int
	out     uint8
	outBits int
}

// New returns a chip in its power-on state: oscillator halted, 2000-01-01
// 00:00:00 in 24h format, write protect clear and the trickle charger
// disabled.
func New() *Chip {
	return &Chip{
		Clock:  [clockRegisters]byte{0x80, 0x00, 0x00, 0x01, 0x01, 0x01, 0x00, 0x00, 0x5C},
		output: true,
	}
}

// Trace returns the operations recorded so far.
func (c *Chip) Trace() []Call {
	return append([]Call(nil), c.trace...)
}

// ResetTrace clears the recorded operations.
func (c *Chip) ResetTrace() {
	c.trace = c.trace[:0]
}

// CE reports the current chip enable level.
func (c *Chip) CE() bool {
	return c.ce
}

// WriteProtected reports whether the control register has write protect set.
func (c *Chip) WriteProtected() bool {
	return c.Clock[7]&0x80 != 0
}

func (c *Chip) record(op Op, level bool) error {
	call := Call{Op: op, Level: level}
	n := len(c.trace)
	c.trace = append(c.trace, call)
	if c.Fail != nil {
		return c.Fail(call, n)
	}
	return nil
}

func (c *Chip) CEInit() error     { return c.record(CEInit, false) }
func (c *Chip) CEDeinit() error   { return c.record(CEDeinit, false) }
func (c *Chip) SCLKInit() error   { return c.record(SCLKInit, false) }
func (c *Chip) SCLKDeinit() error { return c.record(SCLKDeinit, false) }
func (c *Chip) IOInit() error     { return c.record(IOInit, false) }
func (c *Chip) IODeinit() error   { return c.record(IODeinit, false) }

func (c *Chip) DelayMs(ms uint32) {
	c.Elapsed += time.Duration(ms) * time.Millisecond
}

func (c *Chip) DelayUs(us uint32) {
	c.Elapsed += time.Duration(us) * time.Microsecond
}

func (c *Chip) CEWrite(high bool) error {
	if err := c.record(CEWrite, high); err != nil {
		return err
	}
	if high && !c.ce {
		c.phase = command
		c.shift, c.nbits = 0, 0
	}
	if !high {
		c.phase = idle
	}
	c.ce = high
	return nil
}

func (c *Chip) SCLKWrite(high bool) error {
	if err := c.record(SCLKWrite, high); err != nil {
		return err
	}
	rising := high && !c.sclk
	falling := !high && c.sclk
	c.sclk = high
	if !c.ce {
		return nil
	}
	switch {
	case rising && (c.phase == command || c.phase == writing):
		c.shift >>= 1
		if c.hostIO {
			c.shift |= 0x80
		}
		c.nbits++
		if c.nbits == 8 {
			c.byteIn(c.shift)
			c.shift, c.nbits = 0, 0
		}
	case falling && c.phase == reading:
		if c.outBits == 8 {
			c.next()
		}
		c.chipIO = c.out>>c.outBits&0x01 != 0
		c.outBits++
	}
	return nil
}

func (c *Chip) IOWrite(high bool) error {
	if err := c.record(IOWrite, high); err != nil {
		return err
	}
	c.hostIO = high
	return nil
}

func (c *Chip) IORead() (bool, error) {
	level := false
	if c.ce && c.phase == reading && c.outBits > 0 {
		level = c.chipIO
	} else if c.output {
		level = c.hostIO
	}
	if err := c.record(IORead, level); err != nil {
		return false, err
	}
	return level, nil
}

// IODirection implements ds1302.DirectionSetter.
func (c *Chip) IODirection(output bool) error {
	if err := c.record(IODirection, output); err != nil {
		return err
	}
	c.output = output
	return nil
}

func (c *Chip) byteIn(b uint8) {
	switch c.phase {
	case command:
		if b&0x80 == 0 {
			c.phase = ignoring
			return
		}
		c.ram = b&0x40 != 0
		c.addr = int(b>>1) & 0x1F
		c.burst = c.addr == burstAddr
		if c.burst {
			c.addr = 0
		}
		if b&0x01 != 0 {
			c.phase = reading
			c.out = c.get(c.addr)
			c.outBits = 0
			return
		}
		c.phase = writing
	case writing:
		c.put(c.addr, b)
		if !c.burst {
			c.phase = ignoring
			return
		}
		c.addr++
		if c.addr >= c.burstLen() {
			c.phase = ignoring
		}
	}
}

// next loads the following byte of a read. A single register read repeats
// the same register.
func (c *Chip) next() {
	if c.burst {
		c.addr++
	}
	c.out = c.get(c.addr)
	c.outBits = 0
}

func (c *Chip) burstLen() int {
	if c.ram {
		return ramSize
	}
	return clockBurst
}

func (c *Chip) get(addr int) uint8 {
	if c.burst && addr >= c.burstLen() {
		return 0
	}
	if c.ram {
		if addr < ramSize {
			return c.RAM[addr]
		}
		return 0
	}
	if addr < clockRegisters {
		return c.Clock[addr]
	}
	return 0
}

func (c *Chip) put(addr int, v uint8) {
	control := !c.ram && addr == 7
	if c.WriteProtected() && !control {
		return
	}
	if c.ram {
		if addr < ramSize {
			c.RAM[addr] = v
		}
		return
	}
	if addr < clockRegisters {
		c.Clock[addr] = v
	}
}
