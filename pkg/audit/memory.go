package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryRecorder buffers events in memory. Intended for tests and for the
// admin debug endpoint; it is not a durable sink.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
	now    func() time.Time
}

// NewMemoryRecorder creates an in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{now: time.Now}
}

func (m *MemoryRecorder) LogSecurityEvent(ctx context.Context, event Event) {
	event.normalize(m.now)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of all recorded events.
func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsByAction returns recorded events matching the given action.
func (m *MemoryRecorder) EventsByAction(action string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards all recorded events.
func (m *MemoryRecorder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

func (m *MemoryRecorder) Close() error { return nil }
