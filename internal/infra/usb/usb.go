// Package usb abstracts the host USB bus behind small interfaces so the
// interception protocols can be exercised without hardware.
package usb

import (
	"context"
	"errors"

	"github.com/vietddude/pacman/internal/core/domain"
)

var (
	// ErrTransient marks enumeration failures caused by momentary bus flux.
	ErrTransient = errors.New("transient usb bus error")

	// ErrDeviceGone is returned by Open when the identity is no longer attached.
	ErrDeviceGone = errors.New("usb device no longer attached")
)

// Bus enumerates attached devices and opens them by identity.
type Bus interface {
	// Enumerate returns a snapshot of every attached device without opening any.
	Enumerate() ([]domain.Device, error)

	// Open opens the device currently attached at the given identity.
	Open(id domain.Identity) (Handle, error)

	// Close releases the bus context.
	Close() error
}

// Handle is an opened device. Close releases every claim still held on it.
type Handle interface {
	// DetachKernelDriver detaches any kernel driver bound to the interfaces
	// this handle claims.
	DetachKernelDriver() error

	// Claim claims interface num (alternate setting 0) of the active configuration.
	Claim(num int) (Interface, error)

	Close() error
}

// Interface is a claimed interface.
type Interface interface {
	// Endpoints describes the endpoints of the claimed setting, ordered by number.
	Endpoints() []EndpointInfo

	OutEndpoint(num int) (Writer, error)
	InEndpoint(num int) (Reader, error)

	// Release releases the interface and its configuration.
	Release() error
}

// Writer writes to an OUT endpoint, honouring the context deadline.
type Writer interface {
	WriteContext(ctx context.Context, p []byte) (int, error)
}

// Reader reads from an IN endpoint, honouring the context deadline.
type Reader interface {
	ReadContext(ctx context.Context, p []byte) (int, error)
}

// EndpointInfo describes one endpoint of a claimed interface.
type EndpointInfo struct {
	Number        int
	In            bool
	Bulk          bool
	MaxPacketSize int
}
