package protocol

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/infra/process"
)

// Quieter suspends the status indicator while fn owns the terminal.
type Quieter interface {
	Quiet(fn func())
}

// PayloadInjector hands a MediaTek device to the external payload tool,
// which performs the BROM handshake over USB itself.
type PayloadInjector struct {
	resolver *Resolver
	runner   process.Runner
	quiet    Quieter
	log      *slog.Logger
}

// NewPayloadInjector creates an injector. quiet may be nil.
func NewPayloadInjector(resolver *Resolver, runner process.Runner, quiet Quieter, log *slog.Logger) *PayloadInjector {
	if log == nil {
		log = slog.Default()
	}
	return &PayloadInjector{resolver: resolver, runner: runner, quiet: quiet, log: log}
}

// Attempt runs the payload tool and waits for it. The device needs no
// handle here; the tool opens it.
func (p *PayloadInjector) Attempt(ctx context.Context, dev domain.Device) domain.Outcome {
	log := p.log.With(dev.LogAttrs()...)
	log.Info("MediaTek device detected")

	argv := p.resolver.Resolve()
	log.Info("Triggering payload", "command", argv)

	var (
		code int
		err  error
	)
	run := func() { code, err = p.runner.Run(ctx, argv) }
	if p.quiet != nil {
		p.quiet.Quiet(run)
	} else {
		run()
	}

	if err != nil {
		return domain.Failed(domain.ReasonLaunch, err)
	}
	if code != 0 {
		return domain.Failed(domain.ReasonPayloadExit, fmt.Errorf("%s exited with status %d", argv[0], code))
	}

	log.Info("Payload accepted")
	return domain.Caught(domain.ModeMTK)
}
