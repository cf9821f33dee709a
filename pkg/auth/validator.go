package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// DefaultMaxTokenLifetime bounds both the claimed lifetime and the observed
// age of a token.
const DefaultMaxTokenLifetime = 24 * time.Hour

// bearerPrefix is the required Authorization header scheme.
const bearerPrefix = "Bearer "

// ValidatorConfig is built once at startup and injected; the validator
// never reads process environment at call time.
type ValidatorConfig struct {
	Secret            Secret
	AllowedAlgorithms []string
	Issuer            string
	Audience          string
	MaxTokenLifetime  time.Duration

	// Now is the clock; tests supply a fixed one.
	Now func() time.Time
}

// DefaultValidatorConfig returns a config allowing only HS256 with the
// default lifetime cap.
func DefaultValidatorConfig(secret Secret) ValidatorConfig {
	return ValidatorConfig{
		Secret:            secret,
		AllowedAlgorithms: []string{"HS256"},
		MaxTokenLifetime:  DefaultMaxTokenLifetime,
		Now:               time.Now,
	}
}

// Validator verifies bearer tokens. Stateless per call; safe for concurrent
// use.
type Validator struct {
	config ValidatorConfig
	logger *logrus.Logger
}

// NewValidator creates a Validator from an explicit config.
func NewValidator(config ValidatorConfig, logger *logrus.Logger) (*Validator, error) {
	if config.Secret == "" {
		return nil, fmt.Errorf("validator config: secret must not be empty")
	}
	if len(config.AllowedAlgorithms) == 0 {
		config.AllowedAlgorithms = []string{"HS256"}
	}
	if config.MaxTokenLifetime <= 0 {
		config.MaxTokenLifetime = DefaultMaxTokenLifetime
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Validator{config: config, logger: logger}, nil
}

// keyFunc rejects disallowed algorithms before releasing key material, so a
// downgrade forgery never reaches signature comparison.
func (v *Validator) keyFunc(token *jwt.Token) (interface{}, error) {
	alg := token.Method.Alg()
	for _, allowed := range v.config.AllowedAlgorithms {
		if alg == allowed {
			return []byte(v.config.Secret.Value()), nil
		}
	}
	return nil, reject(RejectAlgorithmNotAllowed, alg)
}

// parse runs the shared signature and claim-shape checks.
func (v *Validator) parse(token string, extra ...jwt.ParserOption) (*Claims, string, error) {
	// The algorithm allow-list is enforced in keyFunc rather than through
	// WithValidMethods so a downgrade attempt is tagged as such instead of
	// as a generic signature failure.
	opts := append([]jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.config.Now),
	}, extra...)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFunc, opts...)
	if err != nil {
		return nil, "", v.mapError(err)
	}

	if err := v.hardenClaims(claims); err != nil {
		return nil, "", err
	}
	return claims, parsed.Method.Alg(), nil
}

// hardenClaims applies the presence, lifetime and age checks on an already
// signature-verified claim set.
func (v *Validator) hardenClaims(claims *Claims) error {
	// The library treats a missing exp as "never expires"; required claims
	// are re-checked here so a configuration drift upstream cannot reopen
	// that hole.
	if claims.ExpiresAt == nil {
		return reject(RejectMissingClaim, "exp")
	}
	if claims.IssuedAt == nil {
		return reject(RejectMissingClaim, "iat")
	}
	if claims.Subject == "" {
		return reject(RejectMissingClaim, "sub")
	}

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime > v.config.MaxTokenLifetime {
		return reject(RejectExcessiveClaimedLifetime, lifetime.String())
	}

	age := v.config.Now().Sub(claims.IssuedAt.Time)
	if age > v.config.MaxTokenLifetime {
		return reject(RejectSuspiciousTokenAge, age.String())
	}
	return nil
}

// mapError folds jwt/v5 errors into the rejection taxonomy.
func (v *Validator) mapError(err error) error {
	if rej, ok := AsRejection(err); ok {
		return rej
	}
	switch {
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return &RejectionError{Kind: RejectMissingClaim, Detail: "exp", cause: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return rejectWrap(RejectTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return rejectWrap(RejectTokenNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return rejectWrap(RejectInvalidIssuer, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return rejectWrap(RejectInvalidAudience, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return rejectWrap(RejectInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return rejectWrap(RejectMalformed, err)
	default:
		return rejectWrap(RejectInvalidSignature, err)
	}
}

// Verify checks signature, algorithm and claim shape and returns the token
// payload. Issuer and audience are not enforced here; use ValidateToken for
// the full request-path validation.
func (v *Validator) Verify(token string) (*TokenPayload, error) {
	claims, alg, err := v.parse(token)
	if err != nil {
		v.logRejection(err)
		return nil, err
	}
	return payloadFromClaims(claims, alg), nil
}

// VerifyFromHeader verifies a token taken from an Authorization header
// value. A missing Bearer scheme is rejected before any signature work.
func (v *Validator) VerifyFromHeader(headerValue string) (*TokenPayload, error) {
	token, err := TokenFromHeader(headerValue)
	if err != nil {
		return nil, err
	}
	return v.Verify(token)
}

// ValidateToken runs the full validation used on the request path: Verify
// plus issuer and audience constraints, returning the request AuthContext.
func (v *Validator) ValidateToken(token string) (*AuthContext, error) {
	var extra []jwt.ParserOption
	if v.config.Issuer != "" {
		extra = append(extra, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		extra = append(extra, jwt.WithAudience(v.config.Audience))
	}

	claims, _, err := v.parse(token, extra...)
	if err != nil {
		v.logRejection(err)
		return nil, err
	}

	return &AuthContext{
		UserID:      claims.Subject,
		TenantID:    claims.TenantID,
		Permissions: claims.Permissions,
	}, nil
}

// ValidateTokenFromHeader is ValidateToken for a raw Authorization header.
func (v *Validator) ValidateTokenFromHeader(headerValue string) (*AuthContext, error) {
	token, err := TokenFromHeader(headerValue)
	if err != nil {
		return nil, err
	}
	return v.ValidateToken(token)
}

// TokenFromHeader extracts the bearer token from an Authorization header
// value.
func TokenFromHeader(headerValue string) (string, error) {
	if !strings.HasPrefix(headerValue, bearerPrefix) {
		return "", reject(RejectMalformed, "authorization header is not a bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	if token == "" {
		return "", reject(RejectMalformed, "empty bearer token")
	}
	return token, nil
}

func (v *Validator) logRejection(err error) {
	v.logger.WithFields(logrus.Fields{
		"reason": string(RejectionKindOf(err)),
	}).Warn("bearer token rejected")
}

func payloadFromClaims(claims *Claims, alg string) *TokenPayload {
	return &TokenPayload{
		UserID:      claims.Subject,
		TenantID:    claims.TenantID,
		Permissions: claims.Permissions,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
		Algorithm:   alg,
	}
}
