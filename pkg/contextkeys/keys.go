// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/tenancyhq/bazaar/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *auth.AuthContext
	// Set by: middleware.BearerAuth (pkg/middleware/auth.go)
	// Required by: all protected API endpoints, permission middleware
	AuthKey Key = "auth_context"

	// TenantKey contains the tenant ID string resolved for the request
	// Set by: middleware.TenantFromHost or route parameters
	// Required by: tenant-scoped endpoints
	TenantKey Key = "tenant_id"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: HTTP middleware
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"
)

// WithAuth attaches the validated auth context to the request context.
func WithAuth(ctx context.Context, authCtx *auth.AuthContext) context.Context {
	return context.WithValue(ctx, AuthKey, authCtx)
}

// AuthFromContext retrieves the auth context, or nil when the request is
// unauthenticated.
func AuthFromContext(ctx context.Context) *auth.AuthContext {
	if authCtx, ok := ctx.Value(AuthKey).(*auth.AuthContext); ok {
		return authCtx
	}
	return nil
}

// WithTenant attaches the resolved tenant ID to the request context.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantKey, tenantID)
}

// TenantFromContext retrieves the resolved tenant ID, or "".
func TenantFromContext(ctx context.Context) string {
	if tenantID, ok := ctx.Value(TenantKey).(string); ok {
		return tenantID
	}
	return ""
}

// WithRequestID attaches the request ID to the request context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
