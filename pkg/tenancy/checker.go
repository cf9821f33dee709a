package tenancy

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tenancyhq/bazaar/pkg/audit"
	"github.com/tenancyhq/bazaar/pkg/keyspace"
)

// roleFetchConcurrency bounds parallel role reads within one check.
const roleFetchConcurrency = 4

// Checker evaluates permissions against membership and role records. It is
// stateless per call and safe for concurrent use.
type Checker struct {
	store    *Store
	recorder audit.Recorder
	logger   *logrus.Logger
}

// NewChecker creates a permission checker.
func NewChecker(store *Store, recorder audit.Recorder, logger *logrus.Logger) *Checker {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Checker{store: store, recorder: recorder, logger: logger}
}

// HasPermission reports whether userID holds permission inside tenantID.
//
// Role lookups are independent reads and run concurrently; the logical
// result is unchanged: if any role in the membership grants the
// permission, the answer is true.
//
// The check fails closed: on store connectivity failure or context
// cancellation it returns false together with a non-nil error, so callers
// can distinguish an outage from a genuine deny and choose to retry.
func (c *Checker) HasPermission(ctx context.Context, userID, tenantID, permission string) (bool, error) {
	membership, err := c.store.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	if membership == nil || !membership.IsActive {
		return false, nil
	}

	var granted atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(roleFetchConcurrency)

	for _, roleID := range membership.Roles {
		roleID := roleID
		g.Go(func() error {
			if granted.Load() {
				return nil
			}
			role, err := c.store.GetRole(gctx, tenantID, roleID)
			if err != nil {
				return err
			}
			if role == nil {
				// Dangling role reference; skip silently.
				return nil
			}
			if role.TenantID != tenantID {
				c.reportCrossTenantRole(gctx, userID, tenantID, role)
				return nil
			}
			if role.HasPermission(permission) {
				granted.Store(true)
			}
			return nil
		})
	}

	err = g.Wait()
	if granted.Load() {
		// A verified grant is definite even if a sibling lookup failed.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// reportCrossTenantRole records a role record referenced from the wrong
// tenant. This is the same audit stream that records cross-tenant key
// comparisons, so downstream monitoring sees one consistent feed.
func (c *Checker) reportCrossTenantRole(ctx context.Context, userID, tenantID string, role *Role) {
	c.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"tenant_id":   tenantID,
		"role_id":     role.ID,
		"role_tenant": role.TenantID,
	}).Warn("role record belongs to a different tenant; treating as not found")

	c.recorder.LogSecurityEvent(ctx, audit.Event{
		ActorUserID: userID,
		TenantID:    tenantID,
		Category:    audit.CategorySecurity,
		Action:      audit.ActionCrossTenantRoleAccess,
		Details: map[string]string{
			"role_id":     role.ID,
			"role_tenant": role.TenantID,
		},
	})
}

// GetUserTenants returns the tenant IDs of the user's active memberships.
// Order is unspecified.
func (c *Checker) GetUserTenants(ctx context.Context, userID string) ([]string, error) {
	memberships, err := c.store.MembershipsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tenants := make([]string, 0, len(memberships))
	seen := make(map[string]bool, len(memberships))
	for _, m := range memberships {
		if !m.IsActive || seen[m.TenantID] {
			continue
		}
		if m.TenantID != keyspace.SystemTenant && !keyspace.IsValidTenantID(m.TenantID) {
			c.logger.WithField("tenant_id", m.TenantID).Warn("membership record carries malformed tenant id")
			continue
		}
		seen[m.TenantID] = true
		tenants = append(tenants, m.TenantID)
	}
	return tenants, nil
}

// IsTenantMember reports whether an active membership exists, without
// consulting roles.
func (c *Checker) IsTenantMember(ctx context.Context, userID, tenantID string) (bool, error) {
	membership, err := c.store.GetMembership(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	return membership != nil && membership.IsActive, nil
}
