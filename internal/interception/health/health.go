// Package health provides interceptor status reporting over HTTP.
package health

import (
	"time"

	"github.com/vietddude/pacman/internal/core/domain"
	"github.com/vietddude/pacman/internal/interception/cooldown"
)

// SystemStatus represents the overall health state of the interceptor.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report is the short status served on /health.
type Report struct {
	Status SystemStatus     `json:"status"`
	State  domain.LoopState `json:"state"`
}

// DetailedReport contains the full interceptor status.
type DetailedReport struct {
	Status    SystemStatus      `json:"status"`
	State     domain.LoopState  `json:"state"`
	StartedAt time.Time         `json:"started_at"`
	Ticks     uint64            `json:"ticks"`
	LastTick  *time.Time        `json:"last_tick,omitempty"`
	BusErrors uint64            `json:"bus_errors"`
	Cooldowns []cooldown.Record `json:"cooldowns"`
	Recent    []domain.Attempt  `json:"recent_attempts"`
}
