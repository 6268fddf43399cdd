// Package metrics defines Prometheus metrics for amulwatch. The
// process is a short-lived batch job, so metrics are exported via a
// textfile-collector dump at the end of each run rather than scraped.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "amulwatch"

// Site API metrics.
var (
	SiteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "site_requests_total",
		Help:      "Total outbound requests to the shop API, by stage.",
	}, []string{"stage"})

	SiteRequestFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "site_request_failures_total",
		Help:      "Total failed outbound requests, by stage.",
	}, []string{"stage"})

	DailyBudgetUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daily_budget_usage",
		Help:      "Requests consumed from the rolling daily budget.",
	})
)

// Fetch metrics.
var (
	FetchPartialTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_partial_total",
		Help:      "Runs where the combined fetch fell back to per-item requests.",
	})

	FetchMissingKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_missing_keys_total",
		Help:      "Tracked aliases absent from the fetch result.",
	})
)

// Run metrics.
var (
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of full poll cycles in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	RunsAbortedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_aborted_total",
		Help:      "Runs aborted before state mutation (bootstrap or fetch failure).",
	})
)

// Alert metrics.
var (
	AlertsFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_fired_total",
		Help:      "Total number of alerts fired.",
	})

	NotificationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures, by channel.",
	}, []string{"channel"})
)

// DumpTextfile writes the default registry to path in the Prometheus
// textfile-collector format. No-op when path is empty.
func DumpTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
