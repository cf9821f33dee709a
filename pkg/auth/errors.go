package auth

import (
	"errors"
	"fmt"
)

// RejectionKind tags why a token was refused. Kinds are logged and counted
// internally; they are never sent to the client.
type RejectionKind string

const (
	RejectMissingClaim             RejectionKind = "missing_claim"
	RejectAlgorithmNotAllowed      RejectionKind = "algorithm_not_allowed"
	RejectInvalidSignature         RejectionKind = "invalid_signature"
	RejectTokenExpired             RejectionKind = "token_expired"
	RejectTokenNotYetValid         RejectionKind = "token_not_yet_valid"
	RejectExcessiveClaimedLifetime RejectionKind = "excessive_claimed_lifetime"
	RejectSuspiciousTokenAge       RejectionKind = "suspicious_token_age"
	RejectInvalidIssuer            RejectionKind = "invalid_issuer"
	RejectInvalidAudience          RejectionKind = "invalid_audience"
	RejectMalformed                RejectionKind = "malformed"
)

// RejectionError is a refused token with its internal reason.
type RejectionError struct {
	Kind   RejectionKind
	Detail string
	cause  error
}

func (e *RejectionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("token rejected (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("token rejected (%s)", e.Kind)
}

func (e *RejectionError) Unwrap() error { return e.cause }

func reject(kind RejectionKind, detail string) *RejectionError {
	return &RejectionError{Kind: kind, Detail: detail}
}

func rejectWrap(kind RejectionKind, cause error) *RejectionError {
	return &RejectionError{Kind: kind, cause: cause}
}

// AsRejection extracts the rejection from an error chain; ok is false for
// non-rejection errors.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// RejectionKindOf returns the kind in the chain, or RejectMalformed when
// the error is not a tagged rejection.
func RejectionKindOf(err error) RejectionKind {
	if rej, ok := AsRejection(err); ok {
		return rej.Kind
	}
	return RejectMalformed
}
