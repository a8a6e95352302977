// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "custodial_wallet"

var (
	ledgerOnce sync.Once
	ledgerReg  *LedgerMetrics

	settlementOnce sync.Once
	settlementReg  *SettlementMetrics

	httpOnce sync.Once
	httpReg  *HTTPMetrics
)

// LedgerMetrics counts Ledger Engine operations.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	replays    *prometheus.CounterVec
}

// Ledger returns the lazily-initialised ledger collectors.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerReg = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations segmented by operation and result code.",
			}, []string{"operation", "result"}),
			replays: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "replays_total",
				Help:      "Requests answered from an already recorded reference.",
			}, []string{"operation"}),
		}
		prometheus.MustRegister(ledgerReg.operations, ledgerReg.replays)
	})
	return ledgerReg
}

// Observe records one operation. result is "ok" or an error code.
func (m *LedgerMetrics) Observe(operation, result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "error"
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

// RecordReplay counts a duplicate reference that returned the existing row.
func (m *LedgerMetrics) RecordReplay(operation string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(operation).Inc()
}

// SettlementMetrics tracks the settlement worker.
type SettlementMetrics struct {
	outcomes       *prometheus.CounterVec
	claimConflicts prometheus.Counter
	broadcast      *prometheus.HistogramVec
	passes         prometheus.Counter
}

// Settlement returns the lazily-initialised settlement collectors.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementReg = &SettlementMetrics{
			outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "outcomes_total",
				Help:      "Claimed external sends by currency and outcome.",
			}, []string{"currency", "outcome"}),
			claimConflicts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "claim_conflicts_total",
				Help:      "Claims lost to a concurrent worker pass.",
			}),
			broadcast: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "broadcast_duration_seconds",
				Help:      "Latency of build, sign and broadcast per chain family.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"family"}),
			passes: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "passes_total",
				Help:      "Completed settlement passes.",
			}),
		}
		prometheus.MustRegister(
			settlementReg.outcomes,
			settlementReg.claimConflicts,
			settlementReg.broadcast,
			settlementReg.passes,
		)
	})
	return settlementReg
}

// RecordOutcome counts one processed row.
func (m *SettlementMetrics) RecordOutcome(currency, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(currency, outcome).Inc()
	if outcome == "SKIPPED" {
		m.claimConflicts.Inc()
	}
}

// ObserveBroadcast records how long a send took to reach a terminal state.
func (m *SettlementMetrics) ObserveBroadcast(family string, d time.Duration) {
	if m == nil {
		return
	}
	m.broadcast.WithLabelValues(family).Observe(d.Seconds())
}

// RecordPass counts a finished worker pass.
func (m *SettlementMetrics) RecordPass() {
	if m == nil {
		return
	}
	m.passes.Inc()
}

// HTTPMetrics tracks API requests.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// HTTP returns the lazily-initialised HTTP collectors.
func HTTP() *HTTPMetrics {
	httpOnce.Do(func() {
		httpReg = &HTTPMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route, method and status class.",
			}, []string{"route", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
		}
		prometheus.MustRegister(httpReg.requests, httpReg.latency)
	})
	return httpReg
}

// Observe records one HTTP request.
func (m *HTTPMetrics) Observe(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	case status >= 300:
		class = "3xx"
	}
	m.requests.WithLabelValues(route, method, class).Inc()
	m.latency.WithLabelValues(route, method).Observe(d.Seconds())
}
