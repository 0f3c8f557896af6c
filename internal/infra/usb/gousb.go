package usb

import (
	"fmt"
	"sort"

	"github.com/google/gousb"
	"github.com/vietddude/pacman/internal/core/domain"
)

// LibUSB is a Bus backed by libusb through gousb.
type LibUSB struct {
	ctx *gousb.Context
}

// NewLibUSB initialises a libusb context. gousb panics when libusb cannot
// be initialised, so the panic is converted into an error.
func NewLibUSB() (*LibUSB, error) {
	resC := make(chan *gousb.Context)
	errC := make(chan error)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errC <- fmt.Errorf("%v", r)
			}
		}()

		resC <- gousb.NewContext()
	}()

	select {
	case err := <-errC:
		return nil, fmt.Errorf("failed to initialize USB: %w", err)
	case ctx := <-resC:
		return &LibUSB{ctx: ctx}, nil
	}
}

// Enumerate walks the device list through the OpenDevices opener callback
// and declines to open anything.
func (b *LibUSB) Enumerate() ([]domain.Device, error) {
	var found []domain.Device
	devs, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		found = append(found, deviceFromDesc(desc))
		return false
	})
	for _, d := range devs {
		_ = d.Close()
	}
	if err != nil {
		return found, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return found, nil
}

// Open opens the device matching id exactly.
func (b *LibUSB) Open(id domain.Identity) (Handle, error) {
	devs, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return deviceFromDesc(desc).Identity == id
	})
	if len(devs) == 0 {
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", id, err)
		}
		return nil, fmt.Errorf("open %s: %w", id, ErrDeviceGone)
	}
	for _, extra := range devs[1:] {
		_ = extra.Close()
	}
	return &libusbHandle{dev: devs[0]}, nil
}

// Close releases the libusb context.
func (b *LibUSB) Close() error {
	return b.ctx.Close()
}

func deviceFromDesc(desc *gousb.DeviceDesc) domain.Device {
	return domain.Device{
		Identity: domain.Identity{
			Vendor:  uint16(desc.Vendor),
			Product: uint16(desc.Product),
			Bus:     desc.Bus,
			Address: desc.Address,
		},
		Port:  desc.Port,
		Speed: desc.Speed.String(),
	}
}

type libusbHandle struct {
	dev *gousb.Device
}

func (h *libusbHandle) DetachKernelDriver() error {
	return h.dev.SetAutoDetach(true)
}

func (h *libusbHandle) Claim(num int) (Interface, error) {
	cfgNum, err := h.dev.ActiveConfigNum()
	if err != nil {
		return nil, fmt.Errorf("active config: %w", err)
	}
	cfg, err := h.dev.Config(cfgNum)
	if err != nil {
		return nil, fmt.Errorf("claim config %d: %w", cfgNum, err)
	}
	intf, err := cfg.Interface(num, 0)
	if err != nil {
		_ = cfg.Close()
		return nil, fmt.Errorf("claim interface %d: %w", num, err)
	}
	return &libusbInterface{cfg: cfg, intf: intf}, nil
}

func (h *libusbHandle) Close() error {
	return h.dev.Close()
}

type libusbInterface struct {
	cfg  *gousb.Config
	intf *gousb.Interface
}

func (i *libusbInterface) Endpoints() []EndpointInfo {
	eps := make([]EndpointInfo, 0, len(i.intf.Setting.Endpoints))
	for _, ep := range i.intf.Setting.Endpoints {
		eps = append(eps, EndpointInfo{
			Number:        ep.Number,
			In:            ep.Direction == gousb.EndpointDirectionIn,
			Bulk:          ep.TransferType == gousb.TransferTypeBulk,
			MaxPacketSize: ep.MaxPacketSize,
		})
	}
	sort.Slice(eps, func(a, b int) bool {
		if eps[a].Number != eps[b].Number {
			return eps[a].Number < eps[b].Number
		}
		return !eps[a].In
	})
	return eps
}

func (i *libusbInterface) OutEndpoint(num int) (Writer, error) {
	ep, err := i.intf.OutEndpoint(num)
	if err != nil {
		return nil, err
	}
	return ep, nil
}

func (i *libusbInterface) InEndpoint(num int) (Reader, error) {
	ep, err := i.intf.InEndpoint(num)
	if err != nil {
		return nil, err
	}
	return ep, nil
}

func (i *libusbInterface) Release() error {
	i.intf.Close()
	return i.cfg.Close()
}
