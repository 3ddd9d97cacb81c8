// Package metrics provides Prometheus collectors for the token cache.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	LookupHit     = "hit"
	LookupMiss    = "miss"
	LookupRefresh = "refresh"
)

const namespace = "gsatoken"

// Metrics groups the collectors updated by a token cache.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// CacheLookups counts token requests by outcome (hit, miss, refresh).
	CacheLookups *prometheus.CounterVec

	// Exchanges counts token endpoint round trips by result. Assertions that
	// fail to sign never reach the endpoint and are not counted.
	Exchanges *prometheus.CounterVec

	// ExchangeDuration observes the latency of the HTTP exchange.
	ExchangeDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Total number of token cache lookups",
			},
			[]string{"result"},
		),
		Exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exchange_total",
				Help:      "Total number of JWT-bearer token exchanges",
			},
			[]string{"result"},
		),
		ExchangeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "exchange_duration_seconds",
				Help:      "Duration of JWT-bearer token exchanges in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.CacheLookups, m.Exchanges, m.ExchangeDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// RecordLookup counts a cache lookup.
func (m *Metrics) RecordLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordExchange counts an exchange and observes its duration.
func (m *Metrics) RecordExchange(start time.Time, err error) {
	if m == nil {
		return
	}

	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}

	m.Exchanges.WithLabelValues(result).Inc()
	m.ExchangeDuration.Observe(time.Since(start).Seconds())
}
