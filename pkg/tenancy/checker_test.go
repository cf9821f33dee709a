package tenancy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenancyhq/bazaar/pkg/audit"
	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/storage"
)

const (
	tenantA = "11111111-1111-4111-8111-111111111111"
	tenantB = "22222222-2222-4222-8222-222222222222"
)

type checkerFixture struct {
	checker  *Checker
	store    *Store
	recorder *audit.MemoryRecorder
	mr       *miniredis.Miniredis
}

func setupChecker(t *testing.T) *checkerFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config := storage.DefaultConfig()
	config.RedisURL = "redis://" + mr.Addr()
	kv, err := storage.NewRedisStore(config)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	logger, _ := test.NewNullLogger()
	recorder := audit.NewMemoryRecorder()
	ns := keyspace.New(logger, recorder)
	store := NewStore(kv, ns, logger, time.Minute)

	return &checkerFixture{
		checker:  NewChecker(store, recorder, logger),
		store:    store,
		recorder: recorder,
		mr:       mr,
	}
}

func (f *checkerFixture) seedMembership(t *testing.T, m Membership) {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, f.mr.Set(f.store.MembershipKey(m.TenantID, m.UserID), string(data)))
}

func (f *checkerFixture) seedRole(t *testing.T, ownerTenant string, r Role) {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, f.mr.Set(f.store.RoleKey(ownerTenant, r.ID), string(data)))
}

func TestHasPermission_Granted(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"r1"}, IsActive: true})
	f.seedRole(t, tenantA, Role{ID: "r1", Name: "editor", TenantID: tenantA, Permissions: []string{"listing:update"}})

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:update")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasPermission_PermissionNotInAnyRole(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"r1"}, IsActive: true})
	f.seedRole(t, tenantA, Role{ID: "r1", Name: "viewer", TenantID: tenantA, Permissions: []string{"listing:read"}})

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:delete")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermission_NoMembership(t *testing.T) {
	f := setupChecker(t)

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:read")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermission_InactiveMembership(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"r1"}, IsActive: false})
	f.seedRole(t, tenantA, Role{ID: "r1", Name: "admin", TenantID: tenantA, Permissions: []string{"listing:update"}})

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:update")
	require.NoError(t, err)
	assert.False(t, ok, "inactive membership grants nothing regardless of role contents")
}

func TestHasPermission_RoleTenantMismatch(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"r1"}, IsActive: true})
	// Role record addressed under tenant A but claiming to belong to B.
	f.seedRole(t, tenantA, Role{ID: "r1", Name: "forged", TenantID: tenantB, Permissions: []string{"listing:update"}})

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:update")
	require.NoError(t, err)
	assert.False(t, ok)

	events := f.recorder.EventsByAction(audit.ActionCrossTenantRoleAccess)
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].ActorUserID)
	assert.Equal(t, tenantA, events[0].TenantID)
	assert.Equal(t, tenantB, events[0].Details["role_tenant"])
}

func TestHasPermission_DanglingRoleSkipped(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"gone", "r2"}, IsActive: true})
	f.seedRole(t, tenantA, Role{ID: "r2", Name: "editor", TenantID: tenantA, Permissions: []string{"listing:update"}})

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:update")
	require.NoError(t, err)
	assert.True(t, ok, "a dangling role reference must not block other roles")
}

func TestHasPermission_CorruptRoleTreatedAsAbsent(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"bad", "r2"}, IsActive: true})
	require.NoError(t, f.mr.Set(f.store.RoleKey(tenantA, "bad"), "{not json"))
	f.seedRole(t, tenantA, Role{ID: "r2", Name: "editor", TenantID: tenantA, Permissions: []string{"listing:update"}})

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:update")
	require.NoError(t, err)
	assert.True(t, ok, "one corrupt record must not fail the whole check")
}

func TestHasPermission_CorruptMembershipTreatedAsAbsent(t *testing.T) {
	f := setupChecker(t)
	require.NoError(t, f.mr.Set(f.store.MembershipKey(tenantA, "u1"), "{not json"))

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:read")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermission_StoreOutageFailsClosedWithError(t *testing.T) {
	f := setupChecker(t)
	f.mr.Close()

	ok, err := f.checker.HasPermission(context.Background(), "u1", tenantA, "listing:read")
	assert.False(t, ok)
	assert.Error(t, err, "an outage must be distinguishable from a genuine deny")
}

func TestHasPermission_CancelledContextFailsClosed(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"r1"}, IsActive: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := f.checker.HasPermission(ctx, "u1", tenantA, "listing:read")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestGetUserTenants(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"r1"}, IsActive: true})
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantB, Roles: nil, IsActive: false})

	tenants, err := f.checker.GetUserTenants(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{tenantA}, tenants, "inactive memberships are invisible")
}

func TestGetUserTenants_NoMemberships(t *testing.T) {
	f := setupChecker(t)

	tenants, err := f.checker.GetUserTenants(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestIsTenantMember(t *testing.T) {
	f := setupChecker(t)
	f.seedMembership(t, Membership{UserID: "u1", TenantID: tenantA, Roles: nil, IsActive: true})
	f.seedMembership(t, Membership{UserID: "u2", TenantID: tenantA, Roles: nil, IsActive: false})

	ok, err := f.checker.IsTenantMember(context.Background(), "u1", tenantA)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.checker.IsTenantMember(context.Background(), "u2", tenantA)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.checker.IsTenantMember(context.Background(), "u1", tenantB)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RoleCacheScopedByFullKey(t *testing.T) {
	f := setupChecker(t)
	f.seedRole(t, tenantA, Role{ID: "r1", Name: "editor", TenantID: tenantA, Permissions: []string{"listing:update"}})

	ctx := context.Background()
	role, err := f.store.GetRole(ctx, tenantA, "r1")
	require.NoError(t, err)
	require.NotNil(t, role)

	// Same role ID under another tenant must not hit tenant A's cache entry.
	role, err = f.store.GetRole(ctx, tenantB, "r1")
	require.NoError(t, err)
	assert.Nil(t, role)
}
