// Package classifier maps USB vendor/product IDs to a recovery protocol.
package classifier

import "github.com/vietddude/pacman/internal/core/domain"

// DefaultFastbootProducts are the product IDs a bootloader reports in fastboot mode.
var DefaultFastbootProducts = []uint16{0x4ee0, 0xd00d}

var fastbootVendors = map[uint16]bool{
	domain.VendorGoogle:  true,
	domain.VendorNothing: true,
}

// Classifier decides which protocol, if any, applies to a device.
type Classifier struct {
	fastbootProducts map[uint16]bool
}

// New builds a classifier recognising the default fastboot products plus extra.
func New(extra ...uint16) *Classifier {
	products := make(map[uint16]bool, len(DefaultFastbootProducts)+len(extra))
	for _, pid := range DefaultFastbootProducts {
		products[pid] = true
	}
	for _, pid := range extra {
		products[pid] = true
	}
	return &Classifier{fastbootProducts: products}
}

// Classify is total: every pair maps to exactly one classification.
// MediaTek devices are accepted on vendor alone since their BROM and
// preloader product IDs vary by chipset.
func (c *Classifier) Classify(vendor, product uint16) domain.Classification {
	switch {
	case fastbootVendors[vendor] && c.fastbootProducts[product]:
		return domain.ClassFastboot
	case vendor == domain.VendorMediaTek:
		return domain.ClassMTK
	default:
		return domain.ClassIgnored
	}
}
