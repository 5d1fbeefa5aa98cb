// Package metrics exports index operations to Prometheus.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/sqlite-lsh/lsh"
)

const namespace = "lsh"

// Operation label values.
const (
	OpInsert = "insert"
	OpQuery  = "query"
	OpRemove = "remove"
)

// Collector implements lsh.MetricsCollector on Prometheus collectors.
type Collector struct {
	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	EntriesInserted  prometheus.Counter
	QueryCandidates  prometheus.Histogram
	AnomaliesTotal   *prometheus.CounterVec
}

var _ lsh.MetricsCollector = (*Collector)(nil)

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered. Collectors already registered with reg by an earlier
// New are reused, so an index can be reopened against the same registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := newCollector()
	if reg == nil {
		return c, nil
	}
	if err := c.Register(reg); err != nil {
		return nil, err
	}
	return c, nil
}

func newCollector() *Collector {
	return &Collector{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Index operations by operation and result (ok, error).",
			},
			[]string{"op", "result"},
		),
		OperationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Index operation latency in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"op"},
		),
		EntriesInserted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_inserted_total",
				Help:      "Keys committed by successful inserts.",
			},
		),
		QueryCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_candidates",
				Help:      "Candidate keys returned per successful query.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		AnomaliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posting_anomalies_total",
				Help:      "Postings found without the key being removed, by band.",
			},
			[]string{"band"},
		),
	}
}

// Register registers c's collectors with reg. Where reg already holds an
// identical collector, c switches to that one instead of failing.
func (c *Collector) Register(reg prometheus.Registerer) error {
	var err error
	if c.OperationsTotal, err = register(reg, c.OperationsTotal); err != nil {
		return err
	}
	if c.OperationLatency, err = register(reg, c.OperationLatency); err != nil {
		return err
	}
	if c.EntriesInserted, err = register(reg, c.EntriesInserted); err != nil {
		return err
	}
	if c.QueryCandidates, err = register(reg, c.QueryCandidates); err != nil {
		return err
	}
	c.AnomaliesTotal, err = register(reg, c.AnomaliesTotal)
	return err
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.OperationsTotal.WithLabelValues(op, result).Inc()
	c.OperationLatency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordInsert implements lsh.MetricsCollector.
func (c *Collector) RecordInsert(count int, d time.Duration, err error) {
	c.observe(OpInsert, d, err)
	if err == nil {
		c.EntriesInserted.Add(float64(count))
	}
}

// RecordQuery implements lsh.MetricsCollector.
func (c *Collector) RecordQuery(candidates int, d time.Duration, err error) {
	c.observe(OpQuery, d, err)
	if err == nil {
		c.QueryCandidates.Observe(float64(candidates))
	}
}

// RecordRemove implements lsh.MetricsCollector.
func (c *Collector) RecordRemove(d time.Duration, err error) {
	c.observe(OpRemove, d, err)
}

// RecordAnomaly implements lsh.MetricsCollector.
func (c *Collector) RecordAnomaly(band int) {
	c.AnomaliesTotal.WithLabelValues(strconv.Itoa(band)).Inc()
}
