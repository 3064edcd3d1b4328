package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Reconciliation metrics
	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logwatch_reconciliation_cycles_total",
			Help: "Total number of reconciliation ticks",
		},
	)

	ReconciliationErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logwatch_reconciliation_errors_total",
			Help: "Total number of reconciliation ticks that failed to list containers",
		},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logwatch_reconciliation_duration_seconds",
			Help:    "Time taken by one reconciliation tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Monitor metrics
	MonitorsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "logwatch_monitors_active",
			Help: "Number of running monitor tasks",
		},
	)

	MonitorsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logwatch_monitors_started_total",
			Help: "Total number of monitor tasks started",
		},
	)

	MonitorsStoppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logwatch_monitors_stopped_total",
			Help: "Total number of monitor tasks stopped by reason",
		},
		[]string{"reason"},
	)

	LogLinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logwatch_log_lines_total",
			Help: "Total number of log lines scanned by watch",
		},
		[]string{"watch"},
	)

	PatternMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logwatch_pattern_matches_total",
			Help: "Total number of log lines matching a pattern by watch",
		},
		[]string{"watch"},
	)

	MatchesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logwatch_matches_skipped_total",
			Help: "Total number of first occurrences skipped by watch",
		},
		[]string{"watch"},
	)

	StreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logwatch_stream_errors_total",
			Help: "Total number of log stream failures by watch",
		},
		[]string{"watch"},
	)

	// Restart metrics
	RestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logwatch_restarts_total",
			Help: "Total number of container restarts by target and result",
		},
		[]string{"target", "result"},
	)
)

// Restart results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

func init() {
	// Register all metrics
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ReconciliationErrorsTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(MonitorsActive)
	prometheus.MustRegister(MonitorsStartedTotal)
	prometheus.MustRegister(MonitorsStoppedTotal)
	prometheus.MustRegister(LogLinesTotal)
	prometheus.MustRegister(PatternMatchesTotal)
	prometheus.MustRegister(MatchesSkippedTotal)
	prometheus.MustRegister(StreamErrorsTotal)
	prometheus.MustRegister(RestartsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
