package lsh

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from an Index. Implement it
// to integrate with a monitoring system; see package metrics for Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each Insert and InsertBatch; count is the
	// number of entries attempted.
	RecordInsert(count int, duration time.Duration, err error)

	// RecordQuery is called after each Query with the number of candidates.
	RecordQuery(candidates int, duration time.Duration, err error)

	// RecordRemove is called after each Remove.
	RecordRemove(duration time.Duration, err error)

	// RecordAnomaly is called when Remove finds a band posting that does not
	// hold the key being removed.
	RecordAnomaly(band int)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)      {}
func (NoopMetricsCollector) RecordAnomaly(int)                      {}

// BasicMetricsCollector keeps in-memory counters. Useful for debugging and
// tests.
type BasicMetricsCollector struct {
	InsertCount     atomic.Int64
	InsertedEntries atomic.Int64
	InsertErrors    atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	CandidateCount  atomic.Int64
	RemoveCount     atomic.Int64
	RemoveErrors    atomic.Int64
	AnomalyCount    atomic.Int64
	TotalNanos      atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(count int, d time.Duration, err error) {
	b.InsertCount.Add(1)
	b.TotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	b.InsertedEntries.Add(int64(count))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(candidates int, d time.Duration, err error) {
	b.QueryCount.Add(1)
	b.TotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
		return
	}
	b.CandidateCount.Add(int64(candidates))
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(d time.Duration, err error) {
	b.RemoveCount.Add(1)
	b.TotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordAnomaly implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAnomaly(int) { b.AnomalyCount.Add(1) }
