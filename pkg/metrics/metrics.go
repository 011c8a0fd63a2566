package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Collectors holds the pickup check metrics.
type Collectors struct {
	ChecksTotal        *prometheus.CounterVec
	CheckDuration      prometheus.Histogram
	AvailableStores    prometheus.Gauge
	NotificationsTotal *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Collectors{
		ChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pickup_checks_total",
				Help: "Number of pickup availability checks by outcome",
			},
			[]string{"outcome"},
		),
		CheckDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pickup_check_duration_seconds",
				Help:    "Duration of pickup availability checks",
				Buckets: prometheus.DefBuckets,
			},
		),
		AvailableStores: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pickup_available_stores",
				Help: "Stores offering pickup in the most recent successful check",
			},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pickup_notifications_total",
				Help: "Notification attempts by channel and result",
			},
			[]string{"channel", "result"},
		),
	}
}

// ObserveCheck records one finished check. stores is ignored on error.
func (c *Collectors) ObserveCheck(outcome string, elapsed time.Duration, stores int) {
	if c == nil {
		return
	}
	c.ChecksTotal.WithLabelValues(outcome).Inc()
	c.CheckDuration.Observe(elapsed.Seconds())
	if outcome != OutcomeError {
		c.AvailableStores.Set(float64(stores))
	}
}

// ObserveNotification records one notification attempt.
func (c *Collectors) ObserveNotification(channel string, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.NotificationsTotal.WithLabelValues(channel, result).Inc()
}
