// Package audit records conversion requests for after-the-fact diagnosis.
// Recording is best-effort: failures are logged by callers, never surfaced
// to the requester.
package audit

import (
	"context"
	"sync"
	"time"
)

// Record is one conversion request outcome.
type Record struct {
	ID            string
	Source        string
	Outcome       string
	CorrelationID string
	ErrorMessage  string
	Duration      time.Duration
	CreatedAt     time.Time
}

// Recorder persists conversion records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	Close()
}

// MemoryRecorder keeps records in memory for development and tests.
type MemoryRecorder struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends the record.
func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything recorded so far.
func (m *MemoryRecorder) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Close is a no-op.
func (m *MemoryRecorder) Close() {}
