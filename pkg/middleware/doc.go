// Package middleware provides the HTTP middleware chain for tenant-scoped
// routes: hostname-to-tenant resolution, bearer-token authentication, and
// per-route permission guards.
//
// The chain is assembled per route as
//
//	TenantFromHost -> BearerAuth -> RequirePermission("listing:read") -> handler
//
// Denials are uniform 401/403 JSON bodies with no reason detail; the
// reasons live in internal logs and metrics only.
package middleware
