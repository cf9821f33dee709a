package audit

import (
	"encoding/json"
	"time"
)

// Category groups related security events for downstream monitoring.
type Category string

const (
	CategorySecurity Category = "security"
	CategoryAccess   Category = "access"
	CategoryToken    Category = "token"
)

// Action identifies what happened. These values are stable identifiers
// consumed by downstream alerting; renaming one is a breaking change.
const (
	// ActionCrossTenantKeyAccess is emitted when two tenant-scoped keys with
	// different tenant segments are compared.
	ActionCrossTenantKeyAccess = "cross-tenant-key-access-attempt"

	// ActionSystemTenantKeyAccess is emitted when a system-scoped key is
	// compared against a tenant-scoped key. This is an accepted pattern but
	// is recorded so the exception stays observable.
	ActionSystemTenantKeyAccess = "system-tenant-key-access"

	// ActionCrossTenantRoleAccess is emitted when a membership references a
	// role record owned by a different tenant.
	ActionCrossTenantRoleAccess = "cross-tenant-role-access-attempt"

	// ActionTokenRejected is emitted when a bearer token fails hardening
	// checks.
	ActionTokenRejected = "token-rejected"
)

// AnonymousActor is recorded when a boundary violation is detected with no
// authenticated user attached. Anonymous events are kept rather than
// dropped: an unattributed cross-tenant probe is still a probe.
const AnonymousActor = "anonymous"

// Event is a single security audit entry. Events are produced by the
// isolation core and owned by whichever sink stores them; the core never
// reads them back.
type Event struct {
	Timestamp   time.Time         `json:"timestamp"`
	ActorUserID string            `json:"actor_user_id"`
	TenantID    string            `json:"tenant_id,omitempty"`
	Category    Category          `json:"category"`
	Action      string            `json:"action"`
	Details     map[string]string `json:"details,omitempty"`
}

// normalize fills defaults so sinks can rely on every field being present.
func (e *Event) normalize(now func() time.Time) {
	if e.Timestamp.IsZero() {
		e.Timestamp = now()
	}
	if e.ActorUserID == "" {
		e.ActorUserID = AnonymousActor
	}
	if e.Category == "" {
		e.Category = CategorySecurity
	}
}

// MarshalJSON keeps the wire shape stable even if the struct grows.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	return json.Marshal(alias(e))
}
