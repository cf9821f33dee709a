package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/tenancyhq/bazaar/pkg/auth"
	"github.com/tenancyhq/bazaar/pkg/authz"
	"github.com/tenancyhq/bazaar/pkg/contextkeys"
)

// BearerAuth authenticates requests from the Authorization header.
type BearerAuth struct {
	validator *auth.Validator
	logger    *logrus.Logger
	optional  bool // If true, allow requests without auth
}

// NewBearerAuth creates the authentication middleware.
func NewBearerAuth(validator *auth.Validator, logger *logrus.Logger, optional bool) *BearerAuth {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BearerAuth{validator: validator, logger: logger, optional: optional}
}

// Handler wraps an HTTP handler with bearer-token authentication. The
// client only ever sees a generic 401; rejection reasons stay in logs.
func (m *BearerAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerValue := r.Header.Get("Authorization")
		if headerValue == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			unauthorized(w)
			return
		}

		authCtx, err := m.validator.ValidateTokenFromHeader(headerValue)
		if err != nil {
			m.logger.WithFields(logrus.Fields{
				"reason": string(auth.RejectionKindOf(err)),
				"path":   r.URL.Path,
			}).Warn("request authentication failed")
			unauthorized(w)
			return
		}

		ctx := contextkeys.WithAuth(r.Context(), authCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission guards a route with a tenant-scoped permission check.
// The tenant is taken from the request context (set by TenantFromHost or a
// route-parameter middleware).
func RequirePermission(service *authz.Service, permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := contextkeys.AuthFromContext(r.Context())
			if authCtx == nil {
				unauthorized(w)
				return
			}

			tenantID := contextkeys.TenantFromContext(r.Context())
			if tenantID == "" {
				forbidden(w)
				return
			}

			decision, err := service.AuthorizeContext(r.Context(), authCtx, tenantID, permission)
			if err != nil {
				// Undetermined: the store could not answer. 503 invites a
				// retry instead of misreporting a deny.
				serviceUnavailable(w)
				return
			}
			if !decision.Allowed {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"forbidden"}`))
}

func serviceUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(`{"error":"temporarily unavailable"}`))
}
