package journal

import (
	"context"
	"sync"
)

// Memory keeps the event stream in process. Used in tests and in
// deployments without a database.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) ListByRecord(_ context.Context, recordID uint64) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns the full stream in append order.
func (m *Memory) All() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}
