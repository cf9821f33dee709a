package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Recorder is the interface for security audit sinks.
//
// LogSecurityEvent is fire-and-forget: implementations must not block the
// caller on slow storage, and a persistence failure must never surface as a
// failure of the decision that produced the event.
type Recorder interface {
	LogSecurityEvent(ctx context.Context, event Event)

	// Close flushes any buffered events.
	Close() error
}

// NopRecorder discards all events. Used when no sink is configured.
type NopRecorder struct{}

func (NopRecorder) LogSecurityEvent(ctx context.Context, event Event) {}
func (NopRecorder) Close() error                                      { return nil }

// LogrusRecorder forwards audit events to a logrus logger. It is the
// default sink for deployments that ship logs to a central collector
// instead of writing a dedicated audit file.
type LogrusRecorder struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewLogrusRecorder creates a recorder writing through the given logger.
func NewLogrusRecorder(logger *logrus.Logger) *LogrusRecorder {
	return &LogrusRecorder{logger: logger, now: time.Now}
}

func (r *LogrusRecorder) LogSecurityEvent(ctx context.Context, event Event) {
	event.normalize(r.now)

	fields := logrus.Fields{
		"audit":         true,
		"actor_user_id": event.ActorUserID,
		"category":      string(event.Category),
		"action":        event.Action,
	}
	if event.TenantID != "" {
		fields["tenant_id"] = event.TenantID
	}
	for k, v := range event.Details {
		fields["detail_"+k] = v
	}

	r.logger.WithFields(fields).Warn("security audit event")
}

func (r *LogrusRecorder) Close() error { return nil }
