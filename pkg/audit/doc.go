// Package audit provides the security audit sink used by the tenant
// isolation core.
//
// # Overview
//
// The keyspace and tenancy packages emit security events whenever a
// cross-tenant boundary is touched: a cross-tenant key comparison, a
// system-to-tenant key access, a role record referenced from the wrong
// tenant. Those events are produced fire-and-forget; a sink that fails to
// persist an event must never block or fail the authorization decision the
// event describes.
//
// # Sinks
//
// The package ships several Recorder implementations:
//
//   - FileRecorder    - JSON lines on disk, with size-based rotation
//   - LogrusRecorder  - events forwarded to a logrus logger
//   - MultiRecorder   - fan-out to several sinks
//   - MemoryRecorder  - in-memory buffer, used by tests
//
// A Retention job (cron-driven) prunes rotated audit files past their
// configured age.
//
// # Usage
//
//	rec, _ := audit.NewFileRecorder(audit.FileRecorderConfig{BasePath: dir})
//	rec.LogSecurityEvent(ctx, audit.Event{
//		ActorUserID: "u1",
//		TenantID:    tenantID,
//		Category:    audit.CategorySecurity,
//		Action:      audit.ActionCrossTenantKeyAccess,
//	})
package audit
