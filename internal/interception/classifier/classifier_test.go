package classifier

import (
	"testing"

	"github.com/vietddude/pacman/internal/core/domain"
)

func TestClassify_KnownDevices(t *testing.T) {
	tests := []struct {
		name     string
		vendor   uint16
		product  uint16
		expected domain.Classification
	}{
		{"google fastboot", 0x18d1, 0x4ee0, domain.ClassFastboot},
		{"google bootloader", 0x18d1, 0xd00d, domain.ClassFastboot},
		{"nothing fastboot", 0x2b4c, 0x4ee0, domain.ClassFastboot},
		{"google adb", 0x18d1, 0x4ee7, domain.ClassIgnored},
		{"nothing mtp", 0x2b4c, 0x1234, domain.ClassIgnored},
		{"mediatek brom", 0x0e8d, 0x0003, domain.ClassMTK},
		{"mediatek preloader", 0x0e8d, 0x2000, domain.ClassMTK},
		{"mediatek arbitrary", 0x0e8d, 0x1234, domain.ClassMTK},
		{"fastboot pid on foreign vendor", 0x05ac, 0x4ee0, domain.ClassIgnored},
		{"keyboard", 0x046d, 0xc31c, domain.ClassIgnored},
	}

	c := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.vendor, tt.product); got != tt.expected {
				t.Errorf("Classify(0x%04x, 0x%04x) = %s, want %s", tt.vendor, tt.product, got, tt.expected)
			}
		})
	}
}

func TestClassify_Totality(t *testing.T) {
	// Sweep a spread of vendors across every product ID.
	vendors := []uint16{0x0000, 0x0e8d, 0x18d1, 0x2b4c, 0x05ac, 0xffff}
	c := New()
	for _, vendor := range vendors {
		for product := 0; product <= 0xffff; product++ {
			got := c.Classify(vendor, uint16(product))
			switch got {
			case domain.ClassFastboot:
				if !fastbootVendors[vendor] {
					t.Fatalf("vendor 0x%04x classified fastboot", vendor)
				}
			case domain.ClassMTK:
				if vendor != domain.VendorMediaTek {
					t.Fatalf("vendor 0x%04x classified mtk", vendor)
				}
			case domain.ClassIgnored:
				if vendor == domain.VendorMediaTek {
					t.Fatalf("mediatek product 0x%04x ignored", product)
				}
			default:
				t.Fatalf("unexpected classification %d", got)
			}
		}
	}
}

func TestNew_ExtraProducts(t *testing.T) {
	c := New(0x4ee7)
	if got := c.Classify(0x18d1, 0x4ee7); got != domain.ClassFastboot {
		t.Errorf("extra product not recognised, got %s", got)
	}
	if got := c.Classify(0x18d1, 0x4ee0); got != domain.ClassFastboot {
		t.Errorf("default product lost, got %s", got)
	}
	if got := New().Classify(0x18d1, 0x4ee7); got != domain.ClassIgnored {
		t.Errorf("extra products must not leak into a default classifier, got %s", got)
	}
}
