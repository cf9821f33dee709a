package authz

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tenancyhq/bazaar/pkg/audit"
	"github.com/tenancyhq/bazaar/pkg/auth"
	"github.com/tenancyhq/bazaar/pkg/tenancy"
)

const tracerName = "github.com/tenancyhq/bazaar/pkg/authz"

// Decision is the caller-visible outcome of an authorization check. The
// internal reason stays in logs and metrics.
type Decision struct {
	Allowed bool

	// Context is the validated acting identity, set only on allow.
	Context *auth.AuthContext
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return "deny"
}

// deny outcomes, for logs and metrics only.
const (
	denyTokenRejected  = "token_rejected"
	denyTenantMismatch = "tenant_mismatch"
	denyNotPermitted   = "not_permitted"
)

// Service composes the token validator and the permission checker.
type Service struct {
	validator *auth.Validator
	checker   *tenancy.Checker
	recorder  audit.Recorder
	logger    *logrus.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// NewService creates the authorization service.
func NewService(validator *auth.Validator, checker *tenancy.Checker, recorder audit.Recorder, logger *logrus.Logger, metrics *Metrics) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		validator: validator,
		checker:   checker,
		recorder:  recorder,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
	}
}

// Authorize decides whether the bearer of token may perform permission
// inside tenantID.
//
// Token failures and permission misses both come back as a plain deny with
// a nil error. A non-nil error means the check could not be completed
// (store outage, cancelled context); the decision is still deny, but the
// caller may retry.
func (s *Service) Authorize(ctx context.Context, token, tenantID, permission string) (Decision, error) {
	ctx, span := s.tracer.Start(ctx, "authz.Authorize",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("permission", permission),
		))
	defer span.End()

	authCtx, err := s.validator.ValidateToken(token)
	if err != nil {
		return s.denyToken(ctx, span, tenantID, err), nil
	}

	return s.authorizeContext(ctx, span, authCtx, tenantID, permission)
}

// AuthorizeContext decides for an already-validated identity, typically
// one attached to the request by the authentication middleware.
func (s *Service) AuthorizeContext(ctx context.Context, authCtx *auth.AuthContext, tenantID, permission string) (Decision, error) {
	ctx, span := s.tracer.Start(ctx, "authz.AuthorizeContext",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("permission", permission),
		))
	defer span.End()

	return s.authorizeContext(ctx, span, authCtx, tenantID, permission)
}

func (s *Service) authorizeContext(ctx context.Context, span trace.Span, authCtx *auth.AuthContext, tenantID, permission string) (Decision, error) {
	// A token minted for one tenant cannot act inside another, whatever
	// its permission claims say.
	if authCtx.TenantID != "" && authCtx.TenantID != tenantID {
		s.logger.WithFields(logrus.Fields{
			"user_id":      authCtx.UserID,
			"token_tenant": authCtx.TenantID,
			"tenant_id":    tenantID,
		}).Warn("token tenant does not match target tenant")
		return s.deny(span, denyTenantMismatch), nil
	}

	// Token-level permission claims are scoped to the token's own tenant
	// and avoid a store round-trip when they already cover the request.
	if authCtx.TenantID == tenantID && authCtx.HasPermission(permission) {
		return s.allow(span, authCtx), nil
	}

	allowed, err := s.checker.HasPermission(ctx, authCtx.UserID, tenantID, permission)
	if err != nil {
		// Undetermined, not denied: fail closed but keep the outage
		// distinguishable so the caller can retry.
		span.SetAttributes(attribute.String("authz.outcome", "error"))
		s.metrics.countDecision("error")
		return Decision{Allowed: false}, err
	}
	if !allowed {
		return s.deny(span, denyNotPermitted), nil
	}
	return s.allow(span, authCtx), nil
}

// AuthorizeHeader is Authorize for a raw Authorization header value.
func (s *Service) AuthorizeHeader(ctx context.Context, headerValue, tenantID, permission string) (Decision, error) {
	token, err := auth.TokenFromHeader(headerValue)
	if err != nil {
		ctx, span := s.tracer.Start(ctx, "authz.Authorize")
		defer span.End()
		return s.denyToken(ctx, span, tenantID, err), nil
	}
	return s.Authorize(ctx, token, tenantID, permission)
}

func (s *Service) allow(span trace.Span, authCtx *auth.AuthContext) Decision {
	span.SetAttributes(attribute.String("authz.outcome", "allow"))
	s.metrics.countDecision("allow")
	return Decision{Allowed: true, Context: authCtx}
}

func (s *Service) deny(span trace.Span, reason string) Decision {
	span.SetAttributes(
		attribute.String("authz.outcome", "deny"),
		attribute.String("authz.reason", reason),
	)
	s.metrics.countDecision("deny")
	return Decision{Allowed: false}
}

func (s *Service) denyToken(ctx context.Context, span trace.Span, tenantID string, err error) Decision {
	reason := string(auth.RejectionKindOf(err))
	s.metrics.countTokenRejection(reason)
	s.recorder.LogSecurityEvent(ctx, audit.Event{
		TenantID: tenantID,
		Category: audit.CategoryToken,
		Action:   audit.ActionTokenRejected,
		Details:  map[string]string{"reason": reason},
	})
	return s.deny(span, denyTokenRejected)
}
