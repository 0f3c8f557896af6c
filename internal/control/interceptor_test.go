package control

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vietddude/pacman/internal/core/config"
	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/infra/usb"
)

type emptyBus struct {
	enumerations int
	closed       bool
}

func (b *emptyBus) Enumerate() ([]domain.Device, error) {
	b.enumerations++
	return nil, nil
}

func (b *emptyBus) Open(domain.Identity) (usb.Handle, error) { return nil, usb.ErrDeviceGone }

func (b *emptyBus) Close() error {
	b.closed = true
	return nil
}

type noopRunner struct{}

func (noopRunner) Run(context.Context, []string) (int, error) { return 0, nil }

func TestInterceptor_Lifecycle(t *testing.T) {
	bus := &emptyBus{}
	app := config.Default()
	app.Toolkit.Dir = t.TempDir()

	i, err := NewInterceptor(Config{
		App:    app,
		Bus:    bus,
		Runner: noopRunner{},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewInterceptor failed: %v", err)
	}
	if i.healthServer != nil {
		t.Error("expected health server disabled on port 0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := i.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Interrupted {
		t.Error("expected interrupted result")
	}
	if got := i.Monitor().Check().State; got != domain.StateAborted {
		t.Errorf("expected aborted state, got %s", got)
	}

	if err := i.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !bus.closed {
		t.Error("expected bus closed")
	}
}

func TestInterceptor_HealthServerEnabled(t *testing.T) {
	app := config.Default()
	app.Server.Port = 18081

	i, err := NewInterceptor(Config{App: app, Bus: &emptyBus{}, Runner: noopRunner{}})
	if err != nil {
		t.Fatalf("NewInterceptor failed: %v", err)
	}
	if i.healthServer == nil {
		t.Error("expected health server")
	}
}
