package amlogic

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/gousb"
)

/*
ROM download requests, all vendor OUT control transfers on endpoint 0:

bmRequestType  bRequest  wValue       wIndex        data
0x40           0x01      addr >> 16   addr & 0xffff 64 bytes of image
0x40           0x34      0            2             command text ("go 0x01080000")

Completion of both is reported as text on bulk IN endpoint 0x81.
*/

type Request uint8

const (
	ReqWriteMem Request = 0x01
	ReqBulkCmd  Request = 0x34
)

func (r Request) String() string {
	switch r {
	case ReqWriteMem:
		return "WRITE MEMORY"
	case ReqBulkCmd:
		return "BULK COMMAND"
	}
	return fmt.Sprintf("Unknown request %02x", uint8(r))
}

const (
	// RequestTypeVendorOut is 0x40: host to device, vendor, recipient device.
	RequestTypeVendorOut uint8 = gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice

	BulkCmdIndex uint16 = 2

	StatusEndpoint uint8 = 0x81

	ChunkSize        = 64
	StatusBufferSize = 512

	ControlTimeout      = 1000 * time.Millisecond
	StatusReadTimeout   = 0
	DefaultPollInterval = 3000 * time.Millisecond

	DefaultBaseAddress uint32 = 0x01080000
	DefaultImagePath          = "../u-boot/u-boot.bin"
)

var (
	SuccessMarker = []byte("success")
	// FailureMarkers are matched case-insensitively.
	FailureMarkers = [][]byte{[]byte("failed"), []byte("error")}
)

type statusKind int

const (
	statusPending statusKind = iota
	statusSuccess
	statusFailure
)

func classifyStatus(status []byte) statusKind {
	if bytes.Contains(status, SuccessMarker) {
		return statusSuccess
	}
	lower := bytes.ToLower(status)
	for _, marker := range FailureMarkers {
		if bytes.Contains(lower, marker) {
			return statusFailure
		}
	}
	return statusPending
}

// splitAddress encodes a device address into the wValue/wIndex pair of a write request.
func splitAddress(addr uint32) (value, index uint16) {
	return uint16(addr >> 16), uint16(addr & 0xffff)
}

// BootCommand is the command that starts execution at addr.
func BootCommand(addr uint32) string {
	return fmt.Sprintf("go 0x%08x", addr)
}

func trimStatus(status []byte) []byte {
	return bytes.TrimRight(status, "\x00")
}
