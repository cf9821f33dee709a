// Package authz composes token validation and tenant permission checking
// into the single Authorize call used by every protected operation.
//
// Callers receive only an allow/deny decision. The specific rejection
// reason (expired token, forged signature, inactive membership, ...) is
// logged and counted internally but never echoed to the client: detail in
// a 401/403 response would help an attacker calibrate forged tokens.
//
// Store connectivity failures are the one exception to the boolean
// surface: they return deny plus a non-nil error so callers can retry
// rather than silently deny legitimate users during an outage.
package authz
