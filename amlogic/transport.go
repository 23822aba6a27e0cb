package amlogic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

var (
	ErrDeviceNotFound = errors.New("no amlogic device found")
	ErrPollTimeout    = errors.New("device did not report completion within the poll budget")
)

// Host is the USB host side: device enumeration and exclusive opening.
type Host interface {
	// Devices lists the attached devices in enumeration order. An empty list is not an error.
	Devices() ([]DeviceRef, error)
	// Open opens the referenced device for exclusive use.
	Open(ref DeviceRef) (Handle, error)
	Close() error
}

// DeviceRef is an unopened device as seen during enumeration.
type DeviceRef interface {
	Identity() (Identity, error)
	String() string
}

// Handle is an opened device. Transfers on a handle must not overlap.
type Handle interface {
	Control(rType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error)
	// BulkRead fills buf from the IN endpoint. A zero timeout waits until ctx is done.
	BulkRead(ctx context.Context, endpoint uint8, buf []byte, timeout time.Duration) (int, error)
	Close() error
}

// TransportError wraps every failure coming out of the USB layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if code, ok := e.Code(); ok {
		return fmt.Sprintf("usb %s: %v (code %d)", e.Op, e.Err, code)
	}
	return fmt.Sprintf("usb %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Code returns the libusb error or transfer status code behind the failure, if there is one.
func (e *TransportError) Code() (int, bool) {
	var usbErr gousb.Error
	if errors.As(e.Err, &usbErr) {
		return int(usbErr), true
	}
	var status gousb.TransferStatus
	if errors.As(e.Err, &status) {
		return int(status), true
	}
	return 0, false
}

func transportError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

// DeviceError means the device answered a poll with a failure marker instead of success.
type DeviceError struct {
	Status []byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device reported failure: %q", trimStatus(e.Status))
}

// ConfigError reports an unusable configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}
