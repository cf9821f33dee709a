// Package tenancy answers "may user U perform permission P inside tenant
// T?" using membership and role records addressed through the keyspace
// package.
//
// # Records
//
// A Membership links a user to a tenant with a list of role IDs and an
// active flag; a Role is a tenant-scoped bundle of permission strings. Both
// are written by an external management surface; this package only reads
// them. Record key shapes:
//
//	<tenant>:user:membership:<userID>   Membership (JSON)
//	<tenant>:role:<roleID>              Role (JSON)
//	system:hostname:<host>              hostname -> tenant routing
//
// # Failure policy
//
// Permission checks fail closed. A corrupt record is logged and treated as
// absent so one bad row cannot fail a whole check; a store connectivity
// failure is returned as an error distinct from deny, so callers can retry
// instead of silently denying legitimate users during an outage.
//
// A role record whose tenant does not match the evaluating tenant is
// treated as "role not found" and reported to the security audit sink,
// the same pipeline that records cross-tenant key comparisons.
package tenancy
