package sink

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/writer"
)

var _ writer.Sink = (*Memory)(nil)

// Memory is an in-process sink for tests. Failures can be programmed
// per entity (matched on the record's "id" field) or for the next N
// calls regardless of content.
type Memory struct {
	mu       sync.Mutex
	byType   map[string][]map[string]any
	calls    int64
	seq      int64
	failNext int
	failures map[string]int
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{
		byType:   make(map[string][]map[string]any),
		failures: make(map[string]int),
	}
}

// Name identifies the sink in writer logs and metrics.
func (m *Memory) Name() string { return "memory" }

// FailEntity makes saves of records whose "id" field equals id fail the
// given number of times. A negative count fails forever.
func (m *Memory) FailEntity(id string, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = times
}

// FailNext makes the next n saves fail regardless of content.
func (m *Memory) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
}

// SaveEntity stores a copy of the record and returns a sequential id.
func (m *Memory) SaveEntity(_ context.Context, entityType string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.failNext > 0 {
		m.failNext--
		return "", errors.WrapTransient(errors.ErrStorageUnavailable, "Memory", "SaveEntity", "programmed failure")
	}

	if id, ok := data["id"].(string); ok {
		if n := m.failures[id]; n != 0 {
			if n > 0 {
				m.failures[id] = n - 1
			}
			return "", errors.WrapTransient(errors.ErrStorageUnavailable, "Memory", "SaveEntity", id)
		}
	}

	m.byType[entityType] = append(m.byType[entityType], maps.Clone(data))
	m.seq++
	return fmt.Sprintf("memory-%d", m.seq), nil
}

// Saved returns copies of every record stored for the entity type, in
// arrival order.
func (m *Memory) Saved(entityType string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.byType[entityType]
	out := make([]map[string]any, 0, len(stored))
	for _, rec := range stored {
		out = append(out, maps.Clone(rec))
	}
	return out
}

// Count returns the total number of records stored across all types.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, recs := range m.byType {
		total += len(recs)
	}
	return total
}

// Calls returns how many times SaveEntity has been invoked, failures
// included.
func (m *Memory) Calls() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Reset clears stored records, call counts and programmed failures.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byType = make(map[string][]map[string]any)
	m.failures = make(map[string]int)
	m.calls = 0
	m.seq = 0
	m.failNext = 0
}
