package amlogic

import "fmt"

// Identity is the vendor/product pair a device enumerates with.
type Identity struct {
	Vendor  uint16
	Product uint16
}

func (id Identity) String() string {
	return fmt.Sprintf("%04x:%04x", id.Vendor, id.Product)
}

var (
	// BurnIdentity is the ROM USB download ("burn") mode of the SoC.
	BurnIdentity = Identity{Vendor: 0x1b8e, Product: 0xc003}
	// NormalIdentity is the same product booted into its regular firmware.
	NormalIdentity = Identity{Vendor: 0x18d1, Product: 0x4e40}
)

type Mode int

const (
	ModeUnknown Mode = iota
	ModeBurn
	ModeNormal
)

func (m Mode) String() string {
	switch m {
	case ModeBurn:
		return "USB burn mode"
	case ModeNormal:
		return "normal mode"
	}
	return "unknown mode"
}

// Classify tells which boot mode a device identity belongs to.
func Classify(id Identity) Mode {
	switch id {
	case BurnIdentity:
		return ModeBurn
	case NormalIdentity:
		return ModeNormal
	}
	return ModeUnknown
}

// Locate returns the first ref in enumeration order whose identity equals id.
// found is false, with a nil error, when nothing matches.
func Locate(refs []DeviceRef, id Identity) (ref DeviceRef, found bool, err error) {
	for _, r := range refs {
		got, err := r.Identity()
		if err != nil {
			return nil, false, transportError(fmt.Sprintf("read descriptor of %s", r), err)
		}
		if got == id {
			return r, true, nil
		}
	}
	return nil, false, nil
}
