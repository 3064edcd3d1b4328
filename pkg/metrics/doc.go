/*
Package metrics provides Prometheus metrics collection and exposition for logwatch.

All metrics are registered with the default Prometheus registry at package
init and exposed through Handler, which pkg/api mounts at /metrics when a
metrics address is configured.

# Metrics Catalog

Reconciliation:

  - logwatch_reconciliation_cycles_total (counter): ticks run
  - logwatch_reconciliation_errors_total (counter): ticks whose listing failed
  - logwatch_reconciliation_duration_seconds (histogram): tick latency

Monitors:

  - logwatch_monitors_active (gauge): tasks in the reconciler's active set
  - logwatch_monitors_started_total (counter)
  - logwatch_monitors_stopped_total{reason} (counter): cancelled, error,
    restarted-once
  - logwatch_log_lines_total{watch} (counter)
  - logwatch_pattern_matches_total{watch} (counter)
  - logwatch_matches_skipped_total{watch} (counter): skip-first debounces
  - logwatch_stream_errors_total{watch} (counter)

Restarts:

  - logwatch_restarts_total{target, result} (counter): result is success or
    failure

# Timer Helper

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconciliationDuration)

# Example Queries

Restart rate per target over five minutes:

	sum by (target) (rate(logwatch_restarts_total[5m]))

Watches that keep losing their log stream:

	rate(logwatch_stream_errors_total[10m]) > 0
*/
package metrics
