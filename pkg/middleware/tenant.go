package middleware

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tenancyhq/bazaar/pkg/contextkeys"
	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/tenancy"
)

// TenantFromHost resolves the request's tenant from its Host header via
// the system hostname routing table.
type TenantFromHost struct {
	resolver *tenancy.Resolver
	logger   *logrus.Logger
}

// NewTenantFromHost creates the hostname resolution middleware.
func NewTenantFromHost(resolver *tenancy.Resolver, logger *logrus.Logger) *TenantFromHost {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TenantFromHost{resolver: resolver, logger: logger}
}

// Handler attaches the resolved tenant ID to the request context. An
// unmapped hostname is a 404: the tenant site does not exist.
func (m *TenantFromHost) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := m.resolver.ResolveHostname(r.Context(), r.Host)
		if err != nil {
			if errors.Is(err, tenancy.ErrUnknownHost) {
				http.NotFound(w, r)
				return
			}
			m.logger.WithError(err).WithField("host", r.Host).Error("hostname resolution failed")
			serviceUnavailable(w)
			return
		}
		ctx := contextkeys.WithTenant(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalHandler attaches the resolved tenant ID when the hostname is
// mapped and passes the request through untouched otherwise. Used on the
// outer chain where API routes carry the tenant in the path instead.
func (m *TenantFromHost) OptionalHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := m.resolver.ResolveHostname(r.Context(), r.Host)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := contextkeys.WithTenant(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantFromRoute reads the tenant ID from the {tenant} mux route variable
// for API routes addressed by tenant ID rather than hostname.
func TenantFromRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := mux.Vars(r)["tenant"]
		if tenantID != keyspace.SystemTenant && !keyspace.IsValidTenantID(tenantID) {
			http.NotFound(w, r)
			return
		}
		ctx := contextkeys.WithTenant(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
