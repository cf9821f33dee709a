// Package keyspace builds and parses tenant-scoped keys for the shared
// key-value store.
//
// # Overview
//
// Every tenant's data lives in one flat Redis namespace. Isolation is
// enforced by construction: every key's first segment is the owning tenant
// ID (a v4 UUID) or the reserved "system" scope, and cross-tenant key
// comparisons go through ValidateSameTenant, which audits violations
// instead of silently allowing them.
//
// # Key grammar
//
// Segments are joined with ':' in fixed order, absent parts omitted:
//
//	<tenant>:<resource>[:<subType>][:<resourceID>][:<action>]
//
// Examples:
//
//	7c9e6679-7425-40de-944b-e07fc1f90ae7:listing:l-100
//	7c9e6679-7425-40de-944b-e07fc1f90ae7:user:membership:u-1
//	system:hostname:shop.example.com
//
// Raw components containing ':' or '%' are percent-escaped before joining,
// so no component can smuggle extra segments into a key.
//
// # Failure semantics
//
// This package sits on the hot path of every store access and never returns
// errors for malformed input. A non-UUID tenant ID produces a warning and a
// best-effort key; callers decide whether the warning is fatal.
package keyspace
