// Package auth hardens bearer-token verification for the multi-tenant API.
//
// # Overview
//
// Tokens are signed JWTs minted by a separate issuing authority. This
// package never issues tokens; it rejects forged, downgraded, expired, or
// suspiciously shaped ones before any permission check runs, and extracts
// the (user, tenant, permissions) context consumed by the tenancy package.
//
// # Hardening checks
//
// Verify applies, in order, short-circuiting on first failure:
//
//  1. signature verifies against the configured secret
//  2. signing algorithm is in the allow-list (HS256 only by default);
//     anything else, including "none", is rejected outright
//  3. exp claim present
//  4. iat claim present
//  5. sub claim present
//  6. claimed lifetime (exp - iat) within the configured maximum
//  7. observed age (now - iat) within the same maximum
//
// Checks 6 and 7 share a threshold but answer different questions: was the
// token minted to live too long, and has it already lived too long.
//
// ValidateToken additionally enforces issuer and audience and returns the
// request AuthContext.
//
// Rejection reasons are for internal logs only. Callers must never echo
// them to unauthenticated clients; that would help an attacker calibrate a
// forgery.
package auth
