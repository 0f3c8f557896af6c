package protocol

import (
	"context"
	"errors"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/infra/usb"
)

// =============================================================================
// Fake USB bus
// =============================================================================

type fakeBus struct {
	handle  *fakeHandle
	openErr error
	opened  []domain.Identity
}

func (b *fakeBus) Enumerate() ([]domain.Device, error) { return nil, nil }
func (b *fakeBus) Close() error                        { return nil }

func (b *fakeBus) Open(id domain.Identity) (usb.Handle, error) {
	b.opened = append(b.opened, id)
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.handle, nil
}

type fakeHandle struct {
	detachErr error
	claimErr  error
	intf      *fakeInterface

	detached bool
	claimed  []int
	closed   bool
}

func (h *fakeHandle) DetachKernelDriver() error {
	h.detached = true
	return h.detachErr
}

func (h *fakeHandle) Claim(num int) (usb.Interface, error) {
	h.claimed = append(h.claimed, num)
	if h.claimErr != nil {
		return nil, h.claimErr
	}
	return h.intf, nil
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

type fakeInterface struct {
	endpoints []usb.EndpointInfo
	writeErr  error
	readErr   error
	reply     string

	// blockWrite makes the OUT endpoint hang until its context ends.
	blockWrite bool

	written  []byte
	reads    int
	released bool
}

func (i *fakeInterface) Endpoints() []usb.EndpointInfo { return i.endpoints }

func (i *fakeInterface) OutEndpoint(num int) (usb.Writer, error) {
	return writerFunc(func(ctx context.Context, p []byte) (int, error) {
		if i.blockWrite {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		if i.writeErr != nil {
			return 0, i.writeErr
		}
		i.written = append(i.written, p...)
		return len(p), nil
	}), nil
}

func (i *fakeInterface) InEndpoint(num int) (usb.Reader, error) {
	return readerFunc(func(ctx context.Context, p []byte) (int, error) {
		i.reads++
		if i.readErr != nil {
			return 0, i.readErr
		}
		return copy(p, i.reply), nil
	}), nil
}

func (i *fakeInterface) Release() error {
	i.released = true
	return nil
}

type writerFunc func(ctx context.Context, p []byte) (int, error)

func (f writerFunc) WriteContext(ctx context.Context, p []byte) (int, error) { return f(ctx, p) }

type readerFunc func(ctx context.Context, p []byte) (int, error)

func (f readerFunc) ReadContext(ctx context.Context, p []byte) (int, error) { return f(ctx, p) }

func bulkPair() []usb.EndpointInfo {
	return []usb.EndpointInfo{
		{Number: 1, In: false, Bulk: true, MaxPacketSize: 512},
		{Number: 1, In: true, Bulk: true, MaxPacketSize: 512},
	}
}

func newFastbootRig() (*fakeBus, *fakeHandle, *fakeInterface) {
	intf := &fakeInterface{endpoints: bulkPair(), reply: "OKAY"}
	handle := &fakeHandle{intf: intf}
	return &fakeBus{handle: handle}, handle, intf
}

var errTimeout = errors.New("libusb: timeout")

// =============================================================================
// Fake process runner
// =============================================================================

type fakeRunner struct {
	code  int
	err   error
	calls [][]string
}

func (r *fakeRunner) Run(ctx context.Context, argv []string) (int, error) {
	r.calls = append(r.calls, argv)
	return r.code, r.err
}

type countingQuieter struct {
	calls int
}

func (q *countingQuieter) Quiet(fn func()) {
	q.calls++
	fn()
}
