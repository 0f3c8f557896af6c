package domain

import "fmt"

// Vendor IDs of the brands the interceptor watches for.
const (
	VendorGoogle   uint16 = 0x18d1
	VendorNothing  uint16 = 0x2b4c
	VendorMediaTek uint16 = 0x0e8d
)

// Identity identifies one physical device at one bus position.
// A device that re-enumerates on the same port keeps its identity.
type Identity struct {
	Vendor  uint16
	Product uint16
	Bus     int
	Address int
}

func (id Identity) String() string {
	return fmt.Sprintf("%04x:%04x@%d.%d", id.Vendor, id.Product, id.Bus, id.Address)
}

// Device is one entry of a bus enumeration snapshot.
type Device struct {
	Identity
	Port  int
	Speed string
}

// LogAttrs returns the key/value pairs used to tag log lines for this device.
func (d Device) LogAttrs() []any {
	return []any{
		"vid", fmt.Sprintf("0x%04x", d.Vendor),
		"pid", fmt.Sprintf("0x%04x", d.Product),
		"bus", d.Bus,
		"address", d.Address,
	}
}

// Classification selects the recovery protocol for a device.
type Classification int

const (
	ClassIgnored Classification = iota
	ClassFastboot
	ClassMTK
)

func (c Classification) String() string {
	switch c {
	case ClassFastboot:
		return "fastboot"
	case ClassMTK:
		return "mtk"
	default:
		return "ignored"
	}
}

// RecoveryMode is the tag handed to the rescue script.
type RecoveryMode string

const (
	ModeFastboot RecoveryMode = "fastboot"
	ModeMTK      RecoveryMode = "mtk"
)
