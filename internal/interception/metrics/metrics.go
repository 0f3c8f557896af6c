package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollTicks counts bus enumeration snapshots
	PollTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pacman_poll_ticks_total",
			Help: "Total number of bus enumeration snapshots taken",
		},
	)

	// BusErrors counts transient enumeration failures
	BusErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pacman_bus_errors_total",
			Help: "Total number of transient USB enumeration errors",
		},
	)

	// DevicesSeen counts recognised devices per classification, once per snapshot
	DevicesSeen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacman_devices_seen_total",
			Help: "Total number of recognised devices observed in bus snapshots",
		},
		[]string{"class"},
	)

	// Attempts tracks protocol attempts by result
	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pacman_attempts_total",
			Help: "Total number of protocol attempts",
		},
		[]string{"protocol", "result"},
	)

	// AttemptDuration tracks how long each protocol attempt took
	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pacman_attempt_duration_seconds",
			Help:    "Protocol attempt latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"protocol"},
	)

	// CooldownTracked is the number of identities with a failure record
	CooldownTracked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pacman_cooldown_tracked_devices",
			Help: "Number of device identities currently holding a cooldown record",
		},
	)
)
