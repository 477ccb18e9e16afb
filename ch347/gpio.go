package ch347

import (
	errgo "gopkg.in/errgo.v1"
)

// Pin is one of the eight GPIO pins.
type Pin uint8

const (
	// CTS0/SCK/TCK
	GPIO0 Pin = iota

	// RTS0/MSIO/TDO
	GPIO1

	// DSR0/SCS0/TMS
	GPIO2

	// SCL
	GPIO3

	// ACT
	GPIO4

	// DTR0/TNOW0/SCS1/TRST
	GPIO5

	// CTS1
	GPIO6

	// RTS1
	GPIO7
)

// ErrResponse is the cause of errors caused by an unexpected answer from the
// device.
var ErrResponse = errgo.New("invalid response")

// GPIO report layout: command, reserved, sub command, length, reserved and
// one byte per pin.
const (
	cmdGPIO    = 0x0b
	subCmdGPIO = 0xcc
	gpioLen    = 0x08
	pinOffset  = 5
	reportLen  = pinOffset + 8
)

// Pin bytes in a request. A zero byte leaves the pin untouched.
const (
	pinOutputHigh = 0xf8
	pinOutputLow  = 0xf0
	pinInput      = 0xc0
)

// Pin bytes in a response.
const (
	stateOutput = 0x80
	stateHigh   = 0x40
)

// WritePin sets the mode of pin: an output driving level, or an input when
// output is false. The pin state reported back by the device is checked.
func (c *IO) WritePin(pin Pin, output bool, level bool) error {
	if pin > GPIO7 {
		return errgo.Newf("no such pin %d", pin)
	}
	p := request()
	switch {
	case !output:
		p[pinOffset+pin] = pinInput
	case level:
		p[pinOffset+pin] = pinOutputHigh
	default:
		p[pinOffset+pin] = pinOutputLow
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.exchange(p); err != nil {
		return errgo.Mask(err, errgo.Is(ErrResponse))
	}

	state := p[pinOffset+pin]
	switch {
	case output && state&stateOutput == 0:
		return errgo.WithCausef(nil, ErrResponse, "gpio%d set as output failed, got 0x%02x", pin, state)
	case output && (state&stateHigh != 0) != level:
		return errgo.WithCausef(nil, ErrResponse, "gpio%d set to %v failed, got 0x%02x", pin, level, state)
	case !output && state&stateOutput != 0:
		return errgo.WithCausef(nil, ErrResponse, "gpio%d set as input failed, got 0x%02x", pin, state)
	}
	return nil
}

// ReadPin returns the level of pin, true for high.
func (c *IO) ReadPin(pin Pin) (bool, error) {
	if pin > GPIO7 {
		return false, errgo.Newf("no such pin %d", pin)
	}
	p := request()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.exchange(p); err != nil {
		return false, errgo.Mask(err, errgo.Is(ErrResponse))
	}
	return p[pinOffset+pin]&stateHigh != 0, nil
}

func request() []byte {
	p := make([]byte, reportLen)
	p[0] = cmdGPIO
	p[2] = subCmdGPIO
	p[3] = gpioLen
	return p
}

// exchange sends the request in p and reads the device answer, which holds
// the state of every pin, back into p.
func (c *IO) exchange(p []byte) error {
	if _, err := c.Dev.Write(p); err != nil {
		return errgo.Notef(err, "cannot write gpio request")
	}
	if _, err := c.Dev.Read(p); err != nil {
		return errgo.Notef(err, "cannot read gpio response")
	}
	if p[0] != cmdGPIO || p[2] != subCmdGPIO {
		return errgo.WithCausef(nil, ErrResponse, "expected (0x%02x 0x%02x 0x%02x), got (0x%02x 0x%02x 0x%02x)",
			cmdGPIO, 0x00, subCmdGPIO,
			p[0], p[1], p[2],
		)
	}
	return nil
}
