package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/storage"
)

// ErrUnknownHost is returned when no tenant claims the hostname.
var ErrUnknownHost = errors.New("tenancy: hostname not mapped to a tenant")

// Resolver maps request hostnames to tenants.
//
// The routing table lives under system-scoped keys: a hostname must be
// resolvable before any tenant context exists, so this data is
// intentionally shared across all tenants. This is one of the few
// sanctioned uses of the system scope.
type Resolver struct {
	kv     storage.KVStore
	ns     *keyspace.Namespace
	logger *logrus.Logger
}

// NewResolver creates a hostname resolver.
func NewResolver(kv storage.KVStore, ns *keyspace.Namespace, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{kv: kv, ns: ns, logger: logger}
}

// ResolveHostname returns the tenant owning host. The port, if present, is
// ignored.
func (r *Resolver) ResolveHostname(ctx context.Context, host string) (string, error) {
	host = strings.ToLower(host)
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}

	key := r.ns.BuildSystemKey(keyspace.ResourceHostname, keyspace.KeyParts{ResourceID: host})
	data, err := r.kv.Get(ctx, key)
	if err == storage.ErrNotFound {
		return "", ErrUnknownHost
	} else if err != nil {
		return "", fmt.Errorf("hostname lookup failed: %w", err)
	}

	tenantID := strings.TrimSpace(string(data))
	if !keyspace.IsValidTenantID(tenantID) {
		r.logger.WithFields(logrus.Fields{
			"host":      host,
			"tenant_id": tenantID,
		}).Warn("hostname routing record carries malformed tenant id")
		return "", ErrUnknownHost
	}
	return tenantID, nil
}
