package ds1302

import (
	errgo "gopkg.in/errgo.v1"
)

// Error causes. Every error returned by this package has one of these as its
// errgo.Cause.
var (
	// ErrParameter reports a missing bus operation, an address or length
	// outside a register bank, or an unknown enum value.
	ErrParameter = errgo.New("invalid parameter")

	// ErrNotInitialized reports a data operation on a device that has not
	// been initialized or has been deinitialized.
	ErrNotInitialized = errgo.New("device not initialized")

	// ErrHardwareIO reports a failing bus operation.
	ErrHardwareIO = errgo.New("hardware i/o failed")

	// ErrValueRange reports a calendar field that cannot be encoded, or a
	// clock register image that does not decode to a valid time.
	ErrValueRange = errgo.New("value out of range")
)

func ioError(err error, format string, args ...interface{}) error {
	return errgo.WithCausef(err, ErrHardwareIO, "ds1302: "+format, args...)
}

func paramError(format string, args ...interface{}) error {
	return errgo.WithCausef(nil, ErrParameter, "ds1302: "+format, args...)
}

func rangeError(format string, args ...interface{}) error {
	return errgo.WithCausef(nil, ErrValueRange, "ds1302: "+format, args...)
}

var errNotInitialized = errgo.WithCausef(nil, ErrNotInitialized, "ds1302: device not initialized")
