package cooldown

import (
	"math"
	"time"
)

// ExponentialBackoff doubles the wait per failure up to a hard cap.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultBackoff returns the interceptor defaults.
// 4s, 8s, 16s, 30s, 30s, ... (Max 30s, ceiling 10 failures)
func DefaultBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  10,
	}
}

// GetDelay calculates delay: InitialDelay * 2^attempt, capped at MaxDelay.
func (s *ExponentialBackoff) GetDelay(attempt int) time.Duration {
	delay := float64(s.InitialDelay) * math.Pow(2, float64(attempt))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// Exhausted reports whether failures has reached the retry ceiling.
func (s *ExponentialBackoff) Exhausted(failures int) bool {
	return failures >= s.MaxAttempts
}
