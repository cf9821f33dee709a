package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Secret holds HMAC key material and redacts itself in logs, fmt verbs and
// text serialization. The raw value is only reachable through Value.
type Secret string

const secretRedacted = "[REDACTED]"

func (s Secret) String() string   { return secretRedacted }
func (s Secret) GoString() string { return secretRedacted }

// MarshalText implements encoding.TextMarshaler with the redacted form.
func (s Secret) MarshalText() ([]byte, error) { return []byte(secretRedacted), nil }

// Value returns the raw secret. Call only where the key material is
// actually needed.
func (s Secret) Value() string { return string(s) }

// Claims is the JWT claim set carried by platform tokens.
type Claims struct {
	TenantID    string   `json:"tenant_id,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// TokenPayload is the verified, immutable content of a bearer token. It is
// consumed once per request and never persisted.
type TokenPayload struct {
	UserID      string
	TenantID    string
	Permissions []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Algorithm   string
}

// AuthContext is the acting identity attached to a request after token
// validation: who, inside which tenant, holding which token-level
// permissions.
type AuthContext struct {
	UserID      string
	TenantID    string
	Permissions []string
}

// HasPermission reports whether the token itself carries the permission.
// Membership-derived permissions are the tenancy package's business.
func (c *AuthContext) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
