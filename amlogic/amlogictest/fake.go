// Package amlogictest provides in-memory stand-ins for the USB host and device handle.
package amlogictest

import (
	"context"
	"fmt"
	"time"

	"github.com/mame82/amlboot/amlogic"
)

// Transfer is one recorded control transfer.
type Transfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Data        []byte
	Timeout     time.Duration
}

// Address decodes the device address a write request targets.
func (t Transfer) Address() uint32 {
	return uint32(t.Value)<<16 | uint32(t.Index)
}

// Read is one recorded bulk read.
type Read struct {
	Endpoint uint8
	Size     int
	Timeout  time.Duration
}

// FakeHandle records transfers and answers bulk reads from Statuses, in order.
// Once Statuses is used up every read returns zero bytes.
type FakeHandle struct {
	Controls []Transfer
	Reads    []Read
	Statuses [][]byte

	// ControlErr is returned by the FailControlAt-th control transfer (1-based); 0 fails all of them.
	ControlErr    error
	FailControlAt int
	ReadErr       error

	Closed int
}

func (h *FakeHandle) Control(rType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	if h.ControlErr != nil && (h.FailControlAt == 0 || h.FailControlAt == len(h.Controls)+1) {
		return 0, h.ControlErr
	}
	h.Controls = append(h.Controls, Transfer{
		RequestType: rType,
		Request:     request,
		Value:       value,
		Index:       index,
		Data:        append([]byte(nil), data...),
		Timeout:     timeout,
	})
	return len(data), nil
}

func (h *FakeHandle) BulkRead(ctx context.Context, endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	h.Reads = append(h.Reads, Read{Endpoint: endpoint, Size: len(buf), Timeout: timeout})
	if h.ReadErr != nil {
		return 0, h.ReadErr
	}
	if len(h.Statuses) == 0 {
		return 0, nil
	}
	status := h.Statuses[0]
	h.Statuses = h.Statuses[1:]
	return copy(buf, status), nil
}

func (h *FakeHandle) Close() error {
	h.Closed++
	return nil
}

// FakeRef is an enumerated device with a fixed identity.
type FakeRef struct {
	Name string
	ID   amlogic.Identity
	Err  error
}

func (r *FakeRef) Identity() (amlogic.Identity, error) {
	return r.ID, r.Err
}

func (r *FakeRef) String() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("fake %s", r.ID)
}

// FakeHost enumerates Refs and hands out Handle on Open.
type FakeHost struct {
	Refs       []amlogic.DeviceRef
	Handle     *FakeHandle
	DevicesErr error
	OpenErr    error

	Opened []amlogic.DeviceRef
	Closed int
}

func (h *FakeHost) Devices() ([]amlogic.DeviceRef, error) {
	if h.DevicesErr != nil {
		return nil, h.DevicesErr
	}
	return h.Refs, nil
}

func (h *FakeHost) Open(ref amlogic.DeviceRef) (amlogic.Handle, error) {
	if h.OpenErr != nil {
		return nil, h.OpenErr
	}
	h.Opened = append(h.Opened, ref)
	if h.Handle == nil {
		h.Handle = &FakeHandle{}
	}
	return h.Handle, nil
}

func (h *FakeHost) Close() error {
	h.Closed++
	return nil
}

// Timer is a backoff.Timer that fires immediately and remembers every wait it was asked for.
type Timer struct {
	Waits []time.Duration
	c     chan time.Time
}

func (t *Timer) Start(d time.Duration) {
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}
	t.Waits = append(t.Waits, d)
	t.c <- time.Time{}
}

func (t *Timer) Stop() {}

func (t *Timer) C() <-chan time.Time {
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}
	return t.c
}
