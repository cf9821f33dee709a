package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/tenancyhq/bazaar/pkg/authz"
	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/middleware"
	"github.com/tenancyhq/bazaar/pkg/storage"
)

// Server serves the tenant-scoped read API.
type Server struct {
	kv     storage.KVStore
	ns     *keyspace.Namespace
	router *mux.Router
	logger *logrus.Logger
}

// NewServer wires the read API. Routes are tenant-scoped under
// /api/v1/tenants/{tenant}/ and pass through tenant extraction, bearer
// auth, and a per-resource permission check before reaching a handler.
func NewServer(kv storage.KVStore, ns *keyspace.Namespace, service *authz.Service, bearer *middleware.BearerAuth, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		kv:     kv,
		ns:     ns,
		router: mux.NewRouter(),
		logger: logger,
	}
	s.setupRoutes(service, bearer)
	return s
}

func (s *Server) setupRoutes(service *authz.Service, bearer *middleware.BearerAuth) {
	guard := func(permission string, h http.HandlerFunc) http.Handler {
		return middleware.TenantFromRoute(bearer.Handler(
			middleware.RequirePermission(service, permission)(h)))
	}

	tenants := s.router.PathPrefix("/api/v1/tenants/{tenant}").Subrouter()
	tenants.Handle("/listings", guard("listing:read", s.listListings)).Methods(http.MethodGet)
	tenants.Handle("/listings/{id}", guard("listing:read", s.getListing)).Methods(http.MethodGet)
	tenants.Handle("/categories", guard("category:read", s.listCategories)).Methods(http.MethodGet)
	tenants.Handle("/sites", guard("site:read", s.listSites)).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router so the binary can mount extra
// routes on the same host.
func (s *Server) Router() *mux.Router {
	return s.router
}
