// Package cooldown tracks per-device failures and decides when a device
// may be attempted again.
package cooldown

import (
	"sort"
	"time"

	"github.com/vietddude/pacman/internal/core/domain"
)

// Record is the failure history of one device identity.
type Record struct {
	Identity     domain.Identity `json:"-"`
	Device       string          `json:"device"`
	FailureCount int             `json:"failure_count"`
	RetryAfter   time.Time       `json:"retry_after"`
}

// Tracker owns the cooldown records. It is not safe for concurrent use;
// the interception loop is its only caller.
type Tracker struct {
	strategy *ExponentialBackoff
	records  map[domain.Identity]*Record
}

// NewTracker creates an empty tracker using strategy for backoff.
func NewTracker(strategy *ExponentialBackoff) *Tracker {
	if strategy == nil {
		strategy = DefaultBackoff()
	}
	return &Tracker{
		strategy: strategy,
		records:  make(map[domain.Identity]*Record),
	}
}

// IsEligible is true when id has no record or now has reached its retry time.
func (t *Tracker) IsEligible(id domain.Identity, now time.Time) bool {
	rec, ok := t.records[id]
	if !ok {
		return true
	}
	return !now.Before(rec.RetryAfter)
}

// RecordFailure counts a failure for id at now and returns the new count.
func (t *Tracker) RecordFailure(id domain.Identity, now time.Time) int {
	rec, ok := t.records[id]
	if !ok {
		rec = &Record{Identity: id, Device: id.String()}
		t.records[id] = rec
	}
	rec.FailureCount++

	retryAfter := now.Add(t.strategy.GetDelay(rec.FailureCount))
	// Keep retry times monotonic even if the caller's clock steps back.
	if retryAfter.After(rec.RetryAfter) {
		rec.RetryAfter = retryAfter
	}
	return rec.FailureCount
}

// FailureCount returns the number of failures recorded for id.
func (t *Tracker) FailureCount(id domain.Identity) int {
	if rec, ok := t.records[id]; ok {
		return rec.FailureCount
	}
	return 0
}

// Backoff returns the wait applied after the given failure count.
func (t *Tracker) Backoff(failures int) time.Duration {
	return t.strategy.GetDelay(failures)
}

// Exhausted reports whether failures has reached the retry ceiling.
func (t *Tracker) Exhausted(failures int) bool {
	return t.strategy.Exhausted(failures)
}

// Len returns the number of tracked identities.
func (t *Tracker) Len() int {
	return len(t.records)
}

// Snapshot returns copies of all records ordered by device.
func (t *Tracker) Snapshot() []Record {
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}
