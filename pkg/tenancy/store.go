package tenancy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/storage"
)

const membershipSubType = "membership"

// roleCacheSize bounds the role cache; role records are small and few per
// tenant.
const roleCacheSize = 1024

// DefaultRoleCacheTTL bounds how stale a cached role may get. Permission
// revocation takes effect within this window.
const DefaultRoleCacheTTL = 5 * time.Minute

// Store reads membership and role records from the shared key-value store.
// Corrupt records are logged and reported as absent; connectivity failures
// are returned as errors.
type Store struct {
	kv        storage.KVStore
	ns        *keyspace.Namespace
	logger    *logrus.Logger
	roleCache *expirable.LRU[string, *Role]
}

// NewStore creates a record store. A roleCacheTTL of zero disables role
// caching.
func NewStore(kv storage.KVStore, ns *keyspace.Namespace, logger *logrus.Logger, roleCacheTTL time.Duration) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Store{kv: kv, ns: ns, logger: logger}
	if roleCacheTTL > 0 {
		s.roleCache = expirable.NewLRU[string, *Role](roleCacheSize, nil, roleCacheTTL)
	}
	return s
}

// MembershipKey returns the key addressing the (user, tenant) membership.
func (s *Store) MembershipKey(tenantID, userID string) string {
	return s.ns.BuildKey(tenantID, keyspace.ResourceUser, keyspace.KeyParts{
		SubType:    membershipSubType,
		ResourceID: userID,
	})
}

// RoleKey returns the key addressing a tenant's role record.
func (s *Store) RoleKey(tenantID, roleID string) string {
	return s.ns.BuildKey(tenantID, keyspace.ResourceRole, keyspace.KeyParts{
		ResourceID: roleID,
	})
}

// membershipPattern matches the user's membership records across all
// tenants. The wildcard is confined to the tenant segment.
func (s *Store) membershipPattern(userID string) string {
	return "*" + keyspace.Delimiter +
		string(keyspace.ResourceUser) + keyspace.Delimiter +
		membershipSubType + keyspace.Delimiter +
		keyspace.EscapeComponent(userID)
}

// GetMembership fetches the membership record for (userID, tenantID).
// Returns (nil, nil) when the record is absent or unparseable.
func (s *Store) GetMembership(ctx context.Context, userID, tenantID string) (*Membership, error) {
	key := s.MembershipKey(tenantID, userID)

	data, err := s.kv.Get(ctx, key)
	if err == storage.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("membership lookup failed: %w", err)
	}

	return s.parseMembership(key, data), nil
}

func (s *Store) parseMembership(key string, data []byte) *Membership {
	var m Membership
	if err := json.Unmarshal(data, &m); err != nil {
		// Treated as absent: one corrupt record must not fail the check.
		s.logger.WithError(err).WithField("key", key).Warn("malformed membership record")
		return nil
	}
	return &m
}

// GetRole fetches a tenant's role record. Returns (nil, nil) when absent or
// unparseable. Results are cached briefly; the cache key is the full
// namespaced key, so entries can never cross tenants.
func (s *Store) GetRole(ctx context.Context, tenantID, roleID string) (*Role, error) {
	key := s.RoleKey(tenantID, roleID)

	if s.roleCache != nil {
		if role, ok := s.roleCache.Get(key); ok {
			return role, nil
		}
	}

	data, err := s.kv.Get(ctx, key)
	if err == storage.ErrNotFound {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("role lookup failed: %w", err)
	}

	var role Role
	if err := json.Unmarshal(data, &role); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("malformed role record")
		return nil, nil
	}

	if s.roleCache != nil {
		s.roleCache.Add(key, &role)
	}
	return &role, nil
}

// MembershipsForUser scans every tenant's membership record for the user.
// Corrupt records are skipped.
func (s *Store) MembershipsForUser(ctx context.Context, userID string) ([]*Membership, error) {
	keys, err := s.kv.Keys(ctx, s.membershipPattern(userID))
	if err != nil {
		return nil, fmt.Errorf("membership scan failed: %w", err)
	}

	memberships := make([]*Membership, 0, len(keys))
	for _, key := range keys {
		data, err := s.kv.Get(ctx, key)
		if err == storage.ErrNotFound {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("membership lookup failed: %w", err)
		}
		if m := s.parseMembership(key, data); m != nil {
			memberships = append(memberships, m)
		}
	}
	return memberships, nil
}

// InvalidateRole evicts a cached role record. Called when a management
// notification reports a role change.
func (s *Store) InvalidateRole(tenantID, roleID string) {
	if s.roleCache != nil {
		s.roleCache.Remove(s.RoleKey(tenantID, roleID))
	}
}
