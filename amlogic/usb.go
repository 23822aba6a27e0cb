package amlogic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
	log "github.com/sirupsen/logrus"
)

// USBHost is the libusb backed Host.
type USBHost struct {
	UsbCtx *gousb.Context
}

func NewUSBHost() *USBHost {
	return &USBHost{UsbCtx: gousb.NewContext()}
}

// USBDevice is an enumerated, unopened device.
type USBDevice struct {
	Desc *gousb.DeviceDesc
}

func (d *USBDevice) Identity() (Identity, error) {
	return Identity{Vendor: uint16(d.Desc.Vendor), Product: uint16(d.Desc.Product)}, nil
}

func (d *USBDevice) String() string {
	return fmt.Sprintf("bus %03d device %03d %s:%s", d.Desc.Bus, d.Desc.Address, d.Desc.Vendor, d.Desc.Product)
}

// Devices enumerates without opening anything.
func (u *USBHost) Devices() ([]DeviceRef, error) {
	var refs []DeviceRef
	_, err := u.UsbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		refs = append(refs, &USBDevice{Desc: desc})
		return false
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (u *USBHost) Open(ref DeviceRef) (Handle, error) {
	want, ok := ref.(*USBDevice)
	if !ok {
		return nil, fmt.Errorf("%s is not a USB device", ref)
	}

	var found bool
	devs, err := u.UsbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if found {
			return false
		}
		if desc.Bus == want.Desc.Bus && desc.Address == want.Desc.Address {
			found = true
			return true
		}
		return false
	})
	if len(devs) == 0 {
		if err == nil {
			err = gousb.ErrorNotFound
		}
		return nil, err
	}
	for _, d := range devs[1:] {
		d.Close()
	}

	h := &usbHandle{Dev: devs[0], eps: make(map[uint8]*gousb.InEndpoint)}

	// The ROM has no kernel driver bound on most hosts; on the others it must be detached.
	if err := h.Dev.SetAutoDetach(true); err != nil {
		log.WithError(err).Debug("Kernel driver auto detach not available")
	}

	h.Iface, h.ifaceDone, err = h.Dev.DefaultInterface()
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("claim default interface: %w", err)
	}
	log.Debugf("Using interface %s", h.Iface)

	if _, err := h.inEndpoint(StatusEndpoint); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (u *USBHost) Close() error {
	if u.UsbCtx != nil {
		err := u.UsbCtx.Close()
		u.UsbCtx = nil
		return err
	}
	return nil
}

type usbHandle struct {
	Dev   *gousb.Device
	Iface *gousb.Interface

	ifaceDone func()
	eps       map[uint8]*gousb.InEndpoint
}

func (h *usbHandle) inEndpoint(addr uint8) (*gousb.InEndpoint, error) {
	if ep, ok := h.eps[addr]; ok {
		return ep, nil
	}
	ep, err := h.Iface.InEndpoint(int(addr & 0x0f))
	if err != nil {
		return nil, fmt.Errorf("open IN endpoint 0x%02x: %w", addr, err)
	}
	h.eps[addr] = ep
	return ep, nil
}

func (h *usbHandle) Control(rType, request uint8, value, index uint16, data []byte, timeout time.Duration) (int, error) {
	h.Dev.ControlTimeout = timeout
	return h.Dev.Control(rType, request, value, index, data)
}

func (h *usbHandle) BulkRead(ctx context.Context, endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	ep, err := h.inEndpoint(endpoint)
	if err != nil {
		return 0, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ep.ReadContext(ctx, buf)
}

// Close releases interface, config and device in reverse order of acquisition.
func (h *usbHandle) Close() error {
	if h.ifaceDone != nil {
		h.ifaceDone()
		h.ifaceDone = nil
		h.Iface = nil
	}
	if h.Dev != nil {
		h.Dev.SetAutoDetach(false)
		err := h.Dev.Close()
		h.Dev = nil
		return err
	}
	return nil
}
