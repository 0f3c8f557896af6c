package health

import (
	"sync"
	"time"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/interception/cooldown"
)

// recentAttempts is the number of attempts kept for the detailed report.
const recentAttempts = 10

// Monitor aggregates the interception loop's progress for the status server.
// The loop writes, HTTP handlers read.
type Monitor struct {
	mu         sync.RWMutex
	now        func() time.Time
	staleAfter time.Duration

	state     domain.LoopState
	startedAt time.Time
	ticks     uint64
	lastTick  time.Time
	busErrors uint64
	cooldowns []cooldown.Record
	attempts  []domain.Attempt // ring of the most recent attempts
}

// NewMonitor creates a monitor. A loop that has not ticked within
// staleAfter is reported as degraded; zero disables the check.
func NewMonitor(staleAfter time.Duration) *Monitor {
	return &Monitor{
		now:        time.Now,
		staleAfter: staleAfter,
		state:      domain.StateIdle,
		startedAt:  time.Now(),
	}
}

// SetState records the loop's current state.
func (m *Monitor) SetState(s domain.LoopState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// RecordTick records one completed bus snapshot.
func (m *Monitor) RecordTick(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	m.lastTick = at
}

// RecordBusError counts a transient enumeration failure.
func (m *Monitor) RecordBusError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busErrors++
}

// RecordAttempt appends a to the recent attempt history.
func (m *Monitor) RecordAttempt(a domain.Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.attempts) >= recentAttempts {
		// Shift elements left, drop oldest
		copy(m.attempts, m.attempts[1:])
		m.attempts[len(m.attempts)-1] = a
	} else {
		m.attempts = append(m.attempts, a)
	}
}

// SetCooldowns replaces the cooldown snapshot.
func (m *Monitor) SetCooldowns(records []cooldown.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooldowns = records
}

// Check returns the short status.
func (m *Monitor) Check() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Report{Status: m.status(), State: m.state}
}

// Detailed returns a copy of everything the monitor holds.
func (m *Monitor) Detailed() DetailedReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r := DetailedReport{
		Status:    m.status(),
		State:     m.state,
		StartedAt: m.startedAt,
		Ticks:     m.ticks,
		BusErrors: m.busErrors,
		Cooldowns: make([]cooldown.Record, len(m.cooldowns)),
		Recent:    make([]domain.Attempt, len(m.attempts)),
	}
	copy(r.Cooldowns, m.cooldowns)
	copy(r.Recent, m.attempts)
	if !m.lastTick.IsZero() {
		last := m.lastTick
		r.LastTick = &last
	}
	return r
}

// status must be called with mu held.
func (m *Monitor) status() SystemStatus {
	if m.state == domain.StateAborted {
		return StatusCritical
	}
	if m.state.IsTerminal() {
		return StatusHealthy
	}
	now := m.now()
	if m.staleAfter > 0 && !m.lastTick.IsZero() && now.Sub(m.lastTick) > m.staleAfter {
		return StatusDegraded
	}
	// Records outlive their cooldown; only devices still backing off count.
	for _, rec := range m.cooldowns {
		if rec.FailureCount > 0 && rec.RetryAfter.After(now) {
			return StatusDegraded
		}
	}
	return StatusHealthy
}
