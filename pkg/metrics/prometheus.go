package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	tickersTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	barFetches   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		tickersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_training_tickers_total",
				Help: "Tickers processed by the training pipeline, by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		barFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_bar_fetch_total",
				Help: "Bar fetches per symbol, by result",
			},
			[]string{"symbol", "result"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "findash_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTickerOutcome counts one processed ticker.
func (r *Recorder) RecordTickerOutcome(outcome string) {
	r.tickersTotal.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordFetch records a bar fetch for a symbol. result is "ok", "cached" or "error".
func (r *Recorder) RecordFetch(symbol, result string) {
	r.barFetches.WithLabelValues(symbol, result).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordTickerOutcome(string)    {}
func (Noop) RecordError(string)            {}
func (Noop) RecordFetch(string, string)    {}
func (Noop) RecordLatency(string, float64) {}
