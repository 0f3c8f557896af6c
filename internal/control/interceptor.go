package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/vietddude/pacman/internal/core/config"
	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/infra/process"
	"github.com/vietddude/pacman/internal/infra/usb"
	"github.com/vietddude/pacman/internal/interception/classifier"
	"github.com/vietddude/pacman/internal/interception/cooldown"
	"github.com/vietddude/pacman/internal/interception/engine"
	"github.com/vietddude/pacman/internal/interception/health"
	"github.com/vietddude/pacman/internal/interception/protocol"
	"github.com/vietddude/pacman/internal/interception/rescue"
	"github.com/vietddude/pacman/internal/interception/status"
)

// Interceptor is the application struct that wires the bus, the protocols
// and the status server around one interception engine.
type Interceptor struct {
	cfg          Config
	bus          usb.Bus
	engine       *engine.Engine
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger
}

// Config holds the application configuration.
type Config struct {
	App *config.AppConfig
	// Bus overrides the libusb bus. Used by tests.
	Bus usb.Bus
	// Runner overrides the external process runner. Used by tests.
	Runner process.Runner
	// Spinner is the waiting indicator; nil disables it.
	Spinner *status.Spinner
	Logger  *slog.Logger
}

// NewInterceptor creates an Interceptor with all dependencies initialized.
func NewInterceptor(cfg Config) (*Interceptor, error) {
	if cfg.App == nil {
		cfg.App = config.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = process.NewExecRunner()
	}
	if cfg.Spinner == nil {
		cfg.Spinner = status.Disabled()
	}
	app := cfg.App

	// 1. USB bus
	bus := cfg.Bus
	if bus == nil {
		lib, err := usb.NewLibUSB()
		if err != nil {
			return nil, fmt.Errorf("failed to open USB bus: %w", err)
		}
		bus = lib
	}

	// 2. Protocols
	fastboot := protocol.NewFastbootFreezer(bus, app.Interceptor.WriteTimeout, app.Interceptor.ReadTimeout, cfg.Logger)
	mtk := protocol.NewPayloadInjector(&protocol.Resolver{
		Dir:      app.Toolkit.MTKPath(),
		Python:   app.Interceptor.Python,
		Fallback: app.Interceptor.MTKTool,
	}, cfg.Runner, cfg.Spinner, cfg.Logger)

	// 3. Cooldown and rescue
	tracker := cooldown.NewTracker(&cooldown.ExponentialBackoff{
		InitialDelay: app.Interceptor.InitialBackoff,
		MaxDelay:     app.Interceptor.MaxBackoff,
		MaxAttempts:  app.Interceptor.MaxAttempts,
	})
	invoker := rescue.NewInvoker(app.Toolkit.RescueScriptPath(), cfg.Runner, cfg.Logger)

	// 4. Status reporting
	healthMon := health.NewMonitor(10 * app.Interceptor.PollInterval)
	var healthServer *health.Server
	if app.Server.Port > 0 {
		healthServer = health.NewServer(healthMon, app.Server.Port)
	}

	eng := engine.New(engine.Config{
		PollInterval: app.Interceptor.PollInterval,
		Scanner:      bus,
		Classifier:   classifier.New(app.Interceptor.FastbootProductIDs...),
		Tracker:      tracker,
		Protocols: map[domain.Classification]engine.Protocol{
			domain.ClassFastboot: fastboot,
			domain.ClassMTK:      mtk,
		},
		Rescuer:   invoker,
		Indicator: cfg.Spinner,
		Observer:  healthMon,
		Logger:    cfg.Logger,
	})

	return &Interceptor{
		cfg:          cfg,
		bus:          bus,
		engine:       eng,
		healthMon:    healthMon,
		healthServer: healthServer,
		log:          cfg.Logger,
	}, nil
}

// Monitor returns the status monitor fed by the engine.
func (i *Interceptor) Monitor() *health.Monitor {
	return i.healthMon
}

// Run starts the status server, if enabled, and blocks in the engine.
func (i *Interceptor) Run(ctx context.Context) (engine.Result, error) {
	if i.healthServer != nil {
		go func() {
			if err := i.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				i.log.Error("Health server failed", "error", err)
			}
		}()
		i.log.Info("Health server listening", "port", i.cfg.App.Server.Port)
	}

	return i.engine.Run(ctx)
}

// Close stops the status server and releases the USB bus.
func (i *Interceptor) Close() error {
	var result *multierror.Error
	if i.healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := i.healthServer.Stop(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("stop health server: %w", err))
		}
	}
	if err := i.bus.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close USB bus: %w", err))
	}
	return result.ErrorOrNil()
}
