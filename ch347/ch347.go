// Package ch347 drives the GPIO pins of the CH347 USB converter in HID mode
// (Mode 2), and maps three of them onto the line operations of a three-wire
// chip such as the DS1302.
//
// The GPIO packet format follows the one used by the official demonstration
// library. [github.com/sstallion/go-hid] provides the HIDAPI interface.
package ch347

import (
	"io"
	"sync"
	"time"

	"github.com/sstallion/go-hid"
	errgo "gopkg.in/errgo.v1"
)

const (
	VendorID  = 0x1a86
	ProductID = 0x55dc

	productName = "HID To UART+SPI+I2C"

	// The second HID interface carries SPI, I2C and GPIO; the first is the
	// UART.
	gpioInterface = 1
)

// ErrNotFound is returned by Path when no CH347 is attached.
var ErrNotFound = errgo.New("no CH347 found")

// HIDDev is a HID device: a write sends an output report, a read returns
// the next input report.
type HIDDev interface {
	io.ReadWriter
}

// IO implements the GPIO access of a CH347. It is safe for concurrent use.
//
// Pass the second hidraw device to Dev.
type IO struct {
	mu  sync.Mutex
	Dev HIDDev
}

// Path returns the hidraw path of the GPIO interface of the first CH347
// found.
func Path() (string, error) {
	var path string
	err := hid.Enumerate(VendorID, ProductID, func(info *hid.DeviceInfo) error {
		if path == "" && info.ProductStr == productName && info.InterfaceNbr == gpioInterface {
			path = info.Path
		}
		return nil
	})
	if err != nil {
		return "", errgo.Notef(err, "cannot enumerate hid devices")
	}
	if path == "" {
		return "", ErrNotFound
	}
	return path, nil
}

// Open opens the GPIO interface at path, or the one of the first CH347
// found when path is empty. Close the returned IO when done.
func Open(path string) (*IO, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, errgo.Mask(err, errgo.Is(ErrNotFound))
		}
		path = p
	}
	dev, err := hid.OpenPath(path)
	if err != nil {
		return nil, errgo.Notef(err, "cannot open %s", path)
	}
	return &IO{Dev: timeoutDev{dev}}, nil
}

// Close closes the underlying device if it can be closed.
func (c *IO) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.Dev.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// timeoutDev bounds reads so that a lost report fails the operation instead
// of blocking forever, and retries reads interrupted by a signal.
type timeoutDev struct {
	*hid.Device
}

func (d timeoutDev) Read(p []byte) (n int, err error) {
	for {
		n, err = d.Device.ReadWithTimeout(p, time.Second)
		if err == nil || err.Error() != "Interrupted system call" {
			return n, err
		}
	}
}
