package keyspace

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tenancyhq/bazaar/pkg/audit"
)

// Delimiter separates key segments.
const Delimiter = ":"

// SystemTenant is the reserved tenant segment for data that is deliberately
// shared across all tenants. Every use of BuildSystemKey must document why
// the data is system-scoped.
const SystemTenant = "system"

// ResourceType is the second key segment. It is a naming convention, not
// enforced by the store.
type ResourceType string

const (
	ResourceUser       ResourceType = "user"
	ResourceRole       ResourceType = "role"
	ResourceSite       ResourceType = "site"
	ResourceCategory   ResourceType = "category"
	ResourceListing    ResourceType = "listing"
	ResourceTenant     ResourceType = "tenant"
	ResourcePermission ResourceType = "permission"
	ResourceAudit      ResourceType = "audit"
	ResourceSettings   ResourceType = "settings"
	ResourceConfig     ResourceType = "config"
	ResourceSession    ResourceType = "session"
	ResourceCache      ResourceType = "cache"
	ResourceHostname   ResourceType = "hostname"
	ResourceSearch     ResourceType = "search"
	ResourceResource   ResourceType = "resource"
)

// KeyParts holds the optional key segments. Zero-value fields are omitted
// from the built key, never encoded as empty segments.
type KeyParts struct {
	SubType    string
	ResourceID string
	Action     string
}

// tenantIDPattern matches a version-4 UUID, strict on the version and
// variant nibbles.
var tenantIDPattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// GenerateTenantID returns a new random v4 UUID. google/uuid draws from
// crypto/rand, so tenant IDs are not guessable.
func GenerateTenantID() string {
	return uuid.NewString()
}

// IsValidTenantID reports whether candidate is a well-formed v4 UUID. The
// system literal is intentionally not accepted here; callers that allow it
// check for it explicitly.
func IsValidTenantID(candidate string) bool {
	return tenantIDPattern.MatchString(candidate)
}

// escaper encodes the delimiter (and the escape character itself) inside
// raw components, so a resource ID like "a:b" cannot introduce a bogus
// segment boundary.
var escaper = strings.NewReplacer("%", "%25", Delimiter, "%3A")

// unescaper reverses escaper.
var unescaper = strings.NewReplacer("%3A", Delimiter, "%25", "%")

// EscapeComponent encodes a raw component for use inside a key.
func EscapeComponent(s string) string {
	return escaper.Replace(s)
}

// UnescapeComponent decodes a component extracted from a key.
func UnescapeComponent(s string) string {
	return unescaper.Replace(s)
}

// Namespace builds and compares tenant-scoped keys. It holds only injected
// collaborators and is safe for concurrent use.
type Namespace struct {
	logger   *logrus.Logger
	recorder audit.Recorder
}

// New creates a Namespace. A nil recorder disables auditing; a nil logger
// falls back to the logrus standard logger.
func New(logger *logrus.Logger, recorder audit.Recorder) *Namespace {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Namespace{logger: logger, recorder: recorder}
}

// BuildKey builds a tenant-scoped key. A tenant ID that is neither the
// system literal nor a valid v4 UUID is flagged with a warning but the key
// is still built: this sits on the hot path of every store access and must
// not be a source of outages.
func (n *Namespace) BuildKey(tenantID string, resource ResourceType, parts KeyParts) string {
	if tenantID != SystemTenant && !IsValidTenantID(tenantID) {
		n.logger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"resource":  string(resource),
		}).Warn("building key with malformed tenant id")
	}
	return join(tenantID, resource, parts)
}

// BuildSystemKey builds a key in the shared system scope. Only data that is
// intentionally visible to every tenant (for example the hostname routing
// table) may live under system keys.
func (n *Namespace) BuildSystemKey(resource ResourceType, parts KeyParts) string {
	return join(SystemTenant, resource, parts)
}

func join(tenantID string, resource ResourceType, parts KeyParts) string {
	segments := make([]string, 0, 5)
	segments = append(segments, EscapeComponent(tenantID))
	if resource != "" {
		segments = append(segments, EscapeComponent(string(resource)))
	}
	if parts.SubType != "" {
		segments = append(segments, EscapeComponent(parts.SubType))
	}
	if parts.ResourceID != "" {
		segments = append(segments, EscapeComponent(parts.ResourceID))
	}
	if parts.Action != "" {
		segments = append(segments, EscapeComponent(parts.Action))
	}
	return strings.Join(segments, Delimiter)
}

// ExtractTenantID returns the first segment of key, verbatim. A key without
// a delimiter is a legacy un-namespaced key and is treated as system-scoped
// rather than as an error.
func ExtractTenantID(key string) string {
	idx := strings.Index(key, Delimiter)
	if idx < 0 {
		return SystemTenant
	}
	return key[:idx]
}

// ExtractResourceType returns the second segment of key, or "" if the key
// has no second segment.
//
// Limitation: segments are positional and optional parts are omitted, so
// the second segment is only reliably a resource type when every key in a
// family is built with the same optional-field pattern. All key shapes this
// repository builds keep the resource type second.
func ExtractResourceType(key string) string {
	parts := strings.Split(key, Delimiter)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// ValidateSameTenant reports whether two keys belong to the same tenant
// scope, auditing boundary crossings:
//
//   - both system-scoped: true, no event
//   - exactly one system-scoped: true (system-to-tenant access is an
//     accepted pattern) and, when an actor is known, a
//     system-tenant-key-access event is recorded
//   - both tenant-scoped, same tenant: true, no event
//   - both tenant-scoped, different tenants: false and a
//     cross-tenant-key-access-attempt event is recorded
//
// Violations are audited even when actorUserID is empty; unattributed
// attempts are recorded as anonymous rather than dropped.
func (n *Namespace) ValidateSameTenant(ctx context.Context, keyA, keyB, actorUserID string) bool {
	tenantA := ExtractTenantID(keyA)
	tenantB := ExtractTenantID(keyB)

	if tenantA == SystemTenant && tenantB == SystemTenant {
		return true
	}

	if tenantA == SystemTenant || tenantB == SystemTenant {
		// Accepted pattern, recorded for attribution only: without an actor
		// there is nothing to attribute, so anonymous crossings into the
		// system scope are not audited.
		if actorUserID != "" {
			tenant := tenantA
			if tenant == SystemTenant {
				tenant = tenantB
			}
			n.recorder.LogSecurityEvent(ctx, audit.Event{
				ActorUserID: actorUserID,
				TenantID:    tenant,
				Category:    audit.CategorySecurity,
				Action:      audit.ActionSystemTenantKeyAccess,
				Details:     map[string]string{"key_a": keyA, "key_b": keyB},
			})
		}
		return true
	}

	if tenantA == tenantB {
		return true
	}

	n.logger.WithFields(logrus.Fields{
		"tenant_a": tenantA,
		"tenant_b": tenantB,
		"actor":    actorUserID,
	}).Warn("cross-tenant key comparison")
	n.recorder.LogSecurityEvent(ctx, audit.Event{
		ActorUserID: actorUserID,
		TenantID:    tenantA,
		Category:    audit.CategorySecurity,
		Action:      audit.ActionCrossTenantKeyAccess,
		Details: map[string]string{
			"key_a":    keyA,
			"key_b":    keyB,
			"tenant_b": tenantB,
		},
	})
	return false
}
