// Package engine runs the interception loop: it polls the bus, dispatches
// recognised devices to their protocol and hands a seized device to the
// rescue procedure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/interception/classifier"
	"github.com/vietddude/pacman/internal/interception/cooldown"
	"github.com/vietddude/pacman/internal/interception/metrics"
)

// DefaultPollInterval is the pause between two bus snapshots.
const DefaultPollInterval = 50 * time.Millisecond

// ErrRetryCeiling is returned when a device has failed too many times.
var ErrRetryCeiling = errors.New("retry ceiling reached")

// Scanner takes bus snapshots.
type Scanner interface {
	Enumerate() ([]domain.Device, error)
}

// Protocol seizes one class of device.
type Protocol interface {
	Attempt(ctx context.Context, dev domain.Device) domain.Outcome
}

// Rescuer takes over a seized device.
type Rescuer interface {
	Invoke(ctx context.Context, mode domain.RecoveryMode) error
}

// Indicator is the waiting animation.
type Indicator interface {
	Start()
	Tick()
	Stop()
}

// Observer receives loop progress. health.Monitor implements it.
type Observer interface {
	SetState(s domain.LoopState)
	RecordTick(at time.Time)
	RecordBusError()
	RecordAttempt(a domain.Attempt)
	SetCooldowns(records []cooldown.Record)
}

// Result describes how Run ended without error.
type Result struct {
	Caught      bool
	Interrupted bool
	Mode        domain.RecoveryMode
	Device      domain.Device
}

// Config holds the collaborators of an Engine. Scanner, Tracker and
// Rescuer are required.
type Config struct {
	PollInterval time.Duration
	Scanner      Scanner
	Classifier   *classifier.Classifier
	Tracker      *cooldown.Tracker
	Protocols    map[domain.Classification]Protocol
	Rescuer      Rescuer
	Indicator    Indicator
	Observer     Observer
	Logger       *slog.Logger
}

// Engine owns the interception loop and all of its state.
type Engine struct {
	pollInterval time.Duration
	scanner      Scanner
	classifier   *classifier.Classifier
	tracker      *cooldown.Tracker
	protocols    map[domain.Classification]Protocol
	rescuer      Rescuer
	indicator    Indicator
	observer     Observer
	log          *slog.Logger

	state domain.LoopState
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an engine from cfg.
func New(cfg Config) *Engine {
	e := &Engine{
		pollInterval: cfg.PollInterval,
		scanner:      cfg.Scanner,
		classifier:   cfg.Classifier,
		tracker:      cfg.Tracker,
		protocols:    cfg.Protocols,
		rescuer:      cfg.Rescuer,
		indicator:    cfg.Indicator,
		observer:     cfg.Observer,
		log:          cfg.Logger,
		state:        domain.StateIdle,
		now:          time.Now,
		sleep:        sleepContext,
	}
	if e.pollInterval <= 0 {
		e.pollInterval = DefaultPollInterval
	}
	if e.classifier == nil {
		e.classifier = classifier.New()
	}
	if e.tracker == nil {
		e.tracker = cooldown.NewTracker(nil)
	}
	if e.indicator == nil {
		e.indicator = nopIndicator{}
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// State returns the loop's current state.
func (e *Engine) State() domain.LoopState {
	return e.state
}

// Run polls until a device is caught, the retry ceiling is hit or ctx is
// cancelled. Cancellation is not an error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.indicator.Start()
	defer e.indicator.Stop()

	e.log.Info("Interceptor running", "poll_interval", e.pollInterval)

	for {
		if ctx.Err() != nil {
			return e.interrupted(), nil
		}

		res, done, err := e.tick(ctx)
		if done {
			return res, err
		}

		e.indicator.Tick()
		if err := e.sleep(ctx, e.pollInterval); err != nil {
			return e.interrupted(), nil
		}
	}
}

// tick takes one bus snapshot and processes every device in it.
func (e *Engine) tick(ctx context.Context) (Result, bool, error) {
	devices, err := e.scanner.Enumerate()
	now := e.now()
	metrics.PollTicks.Inc()
	e.observer.RecordTick(now)
	if err != nil {
		metrics.BusErrors.Inc()
		e.observer.RecordBusError()
		e.log.Debug("Bus enumeration failed", "error", err)
		return Result{}, false, nil
	}

	for _, dev := range devices {
		e.transition(domain.StateClassify)
		class := e.classifier.Classify(dev.Vendor, dev.Product)
		if class == domain.ClassIgnored {
			continue
		}
		metrics.DevicesSeen.WithLabelValues(class.String()).Inc()

		e.transition(domain.StateCooldownCheck)
		if !e.tracker.IsEligible(dev.Identity, now) {
			continue
		}
		proto, ok := e.protocols[class]
		if !ok {
			continue
		}

		e.transition(domain.StateDispatch)
		out, attempt := e.dispatch(ctx, proto, class, dev)

		e.transition(domain.StateRecordOutcome)
		e.observer.RecordAttempt(attempt)
		if out.IsCaught() {
			return e.handOff(ctx, dev, out), true, nil
		}
		if err := e.recordFailure(dev, class, out, attempt.FinishedAt); err != nil {
			return Result{}, true, err
		}
	}

	e.transition(domain.StateIdle)
	return Result{}, false, nil
}

func (e *Engine) dispatch(ctx context.Context, proto Protocol, class domain.Classification, dev domain.Device) (domain.Outcome, domain.Attempt) {
	started := e.now()
	out := proto.Attempt(ctx, dev)
	finished := e.now()

	metrics.AttemptDuration.WithLabelValues(class.String()).Observe(finished.Sub(started).Seconds())
	metrics.Attempts.WithLabelValues(class.String(), string(out.Status)).Inc()

	attempt := domain.Attempt{
		ID:         out.AttemptID,
		Device:     dev.Identity.String(),
		Class:      class.String(),
		Status:     out.Status,
		Reason:     out.Reason,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if out.Err != nil {
		attempt.Error = out.Err.Error()
	}
	return out, attempt
}

func (e *Engine) recordFailure(dev domain.Device, class domain.Classification, out domain.Outcome, at time.Time) error {
	count := e.tracker.RecordFailure(dev.Identity, at)
	metrics.CooldownTracked.Set(float64(e.tracker.Len()))
	e.observer.SetCooldowns(e.tracker.Snapshot())

	attrs := append(dev.LogAttrs(),
		"protocol", class.String(),
		"attempt_id", out.AttemptID,
		"reason", out.Reason,
		"error", out.Err,
		"failures", count,
	)

	if e.tracker.Exhausted(count) {
		e.transition(domain.StateAborted)
		e.log.Error("Retry ceiling reached, giving up", attrs...)
		e.log.Error("Likely causes: the bootloader window is too short, the USB connection is unstable, or this user lacks permission to open the device")
		return fmt.Errorf("%w: %s failed %d times", ErrRetryCeiling, dev.Identity, count)
	}

	e.log.Warn("Attempt failed", append(attrs, "retry_in", e.tracker.Backoff(count))...)
	return nil
}

func (e *Engine) handOff(ctx context.Context, dev domain.Device, out domain.Outcome) Result {
	e.transition(domain.StateCaught)
	e.indicator.Stop()
	e.log.Info("Device caught", append(dev.LogAttrs(), "mode", out.Mode, "attempt_id", out.AttemptID)...)

	if err := e.rescuer.Invoke(ctx, out.Mode); err != nil {
		e.log.Warn("Rescue procedure could not be started", "mode", out.Mode, "error", err)
	}
	return Result{Caught: true, Mode: out.Mode, Device: dev}
}

func (e *Engine) interrupted() Result {
	e.transition(domain.StateAborted)
	e.log.Info("Interceptor stopped")
	return Result{Interrupted: true}
}

func (e *Engine) transition(to domain.LoopState) {
	if e.state == to {
		return
	}
	if !CanTransition(e.state, to) {
		e.log.Debug("Unexpected state transition", "from", e.state, "to", to)
	}
	e.state = to
	e.observer.SetState(to)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopIndicator struct{}

func (nopIndicator) Start() {}
func (nopIndicator) Tick()  {}
func (nopIndicator) Stop()  {}

type nopObserver struct{}

func (nopObserver) SetState(domain.LoopState)      {}
func (nopObserver) RecordTick(time.Time)           {}
func (nopObserver) RecordBusError()                {}
func (nopObserver) RecordAttempt(domain.Attempt)   {}
func (nopObserver) SetCooldowns([]cooldown.Record) {}
