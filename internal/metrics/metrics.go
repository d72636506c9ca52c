// Package metrics holds the prometheus collectors shared by the engine, the
// feed and the notifier.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_bars_received_total", Help: "Bar updates ingested"},
		[]string{"symbol", "timeframe"},
	)
	SignalsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_signals_raised_total", Help: "Signals registered as pending"},
		[]string{"timeframe", "direction"},
	)
	SignalsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_signals_confirmed_total", Help: "Pending signals confirmed"},
		[]string{"timeframe"},
	)
	SignalsDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_signals_discarded_total", Help: "Pending signals discarded"},
		[]string{"timeframe"},
	)
	Outcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_outcomes_total", Help: "Graded signal outcomes"},
		[]string{"outcome"},
	)
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_errors_total", Help: "Errors by kind"},
		[]string{"kind"},
	)
	PendingSignals = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sentinel_pending_signals", Help: "Live pending signals"},
	)
	LiveTrackers = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sentinel_live_trackers", Help: "Outcome trackers waiting on their horizon"},
	)
	IndicatorWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "sentinel_indicator_weight", Help: "Current weight per indicator"},
		[]string{"indicator"},
	)
	EvaluationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_cycle_duration_seconds",
			Help:    "Duration of one engine poll cycle",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		BarsReceived, SignalsRaised, SignalsConfirmed, SignalsDiscarded,
		Outcomes, Errors, PendingSignals, LiveTrackers, IndicatorWeight,
		EvaluationSeconds,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
