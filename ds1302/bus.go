package ds1302

import (
	errgo "gopkg.in/errgo.v1"
)

// Bus is the set of line operations the driver needs: chip enable (CE), serial
// clock (SCLK) and the bidirectional data line (IO), plus delays. Levels are
// true for high.
type Bus interface {
	CEInit() error
	CEDeinit() error
	CEWrite(high bool) error

	SCLKInit() error
	SCLKDeinit() error
	SCLKWrite(high bool) error

	IOInit() error
	IODeinit() error
	IOWrite(high bool) error
	IORead() (bool, error)

	DelayMs(ms uint32)
	DelayUs(us uint32)
}

// DirectionSetter is implemented by buses whose IO line must be switched
// explicitly between driving (output) and sampling (input). The driver
// switches to input after the command byte of a read and back to output
// before releasing CE.
type DirectionSetter interface {
	IODirection(output bool) error
}

// Funcs is a Bus built from individual functions, for callers that wire line
// operations from existing code. Every field except IODirection is required;
// Init reports the first missing one.
type Funcs struct {
	CEInit     func() error
	CEDeinit   func() error
	CEWrite    func(high bool) error
	SCLKInit   func() error
	SCLKDeinit func() error
	SCLKWrite  func(high bool) error
	IOInit     func() error
	IODeinit   func() error
	IOWrite    func(high bool) error
	IORead     func() (bool, error)
	DelayMs    func(ms uint32)
	DelayUs    func(us uint32)

	// IODirection is optional, see DirectionSetter.
	IODirection func(output bool) error
}

// Bus returns f as a Bus.
func (f Funcs) Bus() Bus {
	if f.IODirection != nil {
		return funcsDirBus{funcsBus{f}}
	}
	return funcsBus{f}
}

func (f Funcs) validate() error {
	missing := ""
	switch {
	case f.CEInit == nil:
		missing = "CEInit"
	case f.CEDeinit == nil:
		missing = "CEDeinit"
	case f.CEWrite == nil:
		missing = "CEWrite"
	case f.SCLKInit == nil:
		missing = "SCLKInit"
	case f.SCLKDeinit == nil:
		missing = "SCLKDeinit"
	case f.SCLKWrite == nil:
		missing = "SCLKWrite"
	case f.IOInit == nil:
		missing = "IOInit"
	case f.IODeinit == nil:
		missing = "IODeinit"
	case f.IOWrite == nil:
		missing = "IOWrite"
	case f.IORead == nil:
		missing = "IORead"
	case f.DelayMs == nil:
		missing = "DelayMs"
	case f.DelayUs == nil:
		missing = "DelayUs"
	default:
		return nil
	}
	return errgo.WithCausef(nil, ErrParameter, "ds1302: %s is nil", missing)
}

type funcsBus struct {
	f Funcs
}

func (b funcsBus) validate() error           { return b.f.validate() }
func (b funcsBus) CEInit() error             { return b.f.CEInit() }
func (b funcsBus) CEDeinit() error           { return b.f.CEDeinit() }
func (b funcsBus) CEWrite(high bool) error   { return b.f.CEWrite(high) }
func (b funcsBus) SCLKInit() error           { return b.f.SCLKInit() }
func (b funcsBus) SCLKDeinit() error         { return b.f.SCLKDeinit() }
func (b funcsBus) SCLKWrite(high bool) error { return b.f.SCLKWrite(high) }
func (b funcsBus) IOInit() error             { return b.f.IOInit() }
func (b funcsBus) IODeinit() error           { return b.f.IODeinit() }
func (b funcsBus) IOWrite(high bool) error   { return b.f.IOWrite(high) }
func (b funcsBus) IORead() (bool, error)     { return b.f.IORead() }
func (b funcsBus) DelayMs(ms uint32)         { b.f.DelayMs(ms) }
func (b funcsBus) DelayUs(us uint32)         { b.f.DelayUs(us) }

type funcsDirBus struct {
	funcsBus
}

func (b funcsDirBus) IODirection(output bool) error { return b.f.IODirection(output) }
