// Package protocol implements the two device handshakes: freezing a
// fastboot bootloader and injecting the MediaTek BROM payload.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/infra/usb"
)

// FreezeCommand is the harmless fastboot query that stops the boot timer.
const FreezeCommand = "getvar:all"

// fastbootInterface is the interface number fastboot uses.
const fastbootInterface = 0

// ackBufferSize bounds the confirmation read.
const ackBufferSize = 64

// ErrMissingEndpoints is returned when the claimed interface lacks a bulk IN or OUT endpoint.
var ErrMissingEndpoints = errors.New("required endpoints (IN/OUT) not found")

// DefaultWriteTimeout bounds the freeze command write when none is configured.
const DefaultWriteTimeout = time.Second

// FastbootFreezer arrests a bootloader by sending it a fastboot command.
type FastbootFreezer struct {
	bus          usb.Bus
	writeTimeout time.Duration
	readTimeout  time.Duration
	log          *slog.Logger
}

// NewFastbootFreezer creates a freezer. writeTimeout bounds the freeze
// command write and readTimeout the confirmation read.
func NewFastbootFreezer(bus usb.Bus, writeTimeout, readTimeout time.Duration, log *slog.Logger) *FastbootFreezer {
	if log == nil {
		log = slog.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &FastbootFreezer{bus: bus, writeTimeout: writeTimeout, readTimeout: readTimeout, log: log}
}

// Attempt freezes dev. Every USB resource taken here is released before
// Attempt returns so an external fastboot tool can open the device next.
func (f *FastbootFreezer) Attempt(ctx context.Context, dev domain.Device) domain.Outcome {
	log := f.log.With(dev.LogAttrs()...)
	log.Info("Fastboot device detected")

	handle, err := f.bus.Open(dev.Identity)
	if err != nil {
		return domain.Failed(domain.ReasonOpen, err)
	}
	defer func() {
		if err := handle.Close(); err != nil {
			log.Warn("Failed to close device handle", "error", err)
		}
	}()

	if err := handle.DetachKernelDriver(); err != nil {
		log.Warn("Kernel driver detach failed, claiming anyway", "error", err)
	}

	intf, err := handle.Claim(fastbootInterface)
	if err != nil {
		return domain.Failed(domain.ReasonClaim, fmt.Errorf("claim interface %d: %w", fastbootInterface, err))
	}
	defer func() {
		if err := intf.Release(); err != nil {
			log.Warn("Failed to release interface", "error", err)
		}
	}()

	outNum, inNum, ok := findBulkPair(intf.Endpoints())
	if !ok {
		return domain.Failed(domain.ReasonMissingEndpoints, ErrMissingEndpoints)
	}

	out, err := intf.OutEndpoint(outNum)
	if err != nil {
		return domain.Failed(domain.ReasonMissingEndpoints, fmt.Errorf("open OUT endpoint %d: %w", outNum, err))
	}
	in, err := intf.InEndpoint(inNum)
	if err != nil {
		return domain.Failed(domain.ReasonMissingEndpoints, fmt.Errorf("open IN endpoint %d: %w", inNum, err))
	}

	log.Info("Sending freeze command", "command", FreezeCommand)
	writeCtx, cancelWrite := context.WithTimeout(ctx, f.writeTimeout)
	_, err = out.WriteContext(writeCtx, []byte(FreezeCommand))
	cancelWrite()
	if err != nil {
		return domain.Failed(domain.ReasonWrite, fmt.Errorf("write %q: %w", FreezeCommand, err))
	}

	// The write is what holds the bootloader; the reply is only a courtesy.
	readCtx, cancel := context.WithTimeout(ctx, f.readTimeout)
	defer cancel()
	buf := make([]byte, ackBufferSize)
	if n, err := in.ReadContext(readCtx, buf); err != nil {
		log.Debug("No reply to freeze command", "error", err)
	} else {
		log.Debug("Bootloader replied", "reply", string(buf[:n]))
	}

	log.Info("Device frozen in fastboot")
	return domain.Caught(domain.ModeFastboot)
}

// findBulkPair picks the first bulk OUT and bulk IN endpoint.
func findBulkPair(eps []usb.EndpointInfo) (outNum, inNum int, ok bool) {
	foundOut, foundIn := false, false
	for _, ep := range eps {
		if !ep.Bulk {
			continue
		}
		switch {
		case ep.In && !foundIn:
			inNum, foundIn = ep.Number, true
		case !ep.In && !foundOut:
			outNum, foundOut = ep.Number, true
		}
	}
	return outNum, inNum, foundOut && foundIn
}
