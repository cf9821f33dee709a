package audit

import (
	"context"
)

// MultiRecorder fans each event out to several sinks. A failing sink does
// not stop delivery to the others.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder creates a recorder writing to every given sink.
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

func (m *MultiRecorder) LogSecurityEvent(ctx context.Context, event Event) {
	for _, r := range m.recorders {
		r.LogSecurityEvent(ctx, event)
	}
}

// Close closes all sinks, returning the first error encountered.
func (m *MultiRecorder) Close() error {
	var firstErr error
	for _, r := range m.recorders {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
