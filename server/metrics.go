package server

import "sync/atomic"

// Metrics tracks server-level counters using atomic operations for
// lock-free concurrency.
type Metrics struct {
	turns       atomic.Int64
	streams     atomic.Int64
	interrupted atomic.Int64
	ingests     atomic.Int64
	errors      atomic.Int64
}

// RecordTurn records a completed blocking chat turn.
func (m *Metrics) RecordTurn() {
	m.turns.Add(1)
}

// RecordStream records a completed streaming chat turn.
func (m *Metrics) RecordStream() {
	m.streams.Add(1)
}

// RecordInterrupted records a stream that ended with partial output.
func (m *Metrics) RecordInterrupted() {
	m.interrupted.Add(1)
}

// RecordIngest records a triggered bulk ingestion.
func (m *Metrics) RecordIngest() {
	m.ingests.Add(1)
}

// RecordError records a request-level error.
func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Turns:       m.turns.Load(),
		Streams:     m.streams.Load(),
		Interrupted: m.interrupted.Load(),
		Ingests:     m.ingests.Load(),
		Errors:      m.errors.Load(),
	}
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Turns       int64 `json:"turns"`
	Streams     int64 `json:"streams"`
	Interrupted int64 `json:"interrupted"`
	Ingests     int64 `json:"ingests"`
	Errors      int64 `json:"errors"`
}
