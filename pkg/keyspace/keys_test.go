package keyspace

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenancyhq/bazaar/pkg/audit"
)

const (
	tenantA = "11111111-1111-4111-8111-111111111111"
	tenantB = "22222222-2222-4222-8222-222222222222"
)

func newTestNamespace(t *testing.T) (*Namespace, *audit.MemoryRecorder, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	recorder := audit.NewMemoryRecorder()
	return New(logger, recorder), recorder, hook
}

func TestIsValidTenantID(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"valid v4", "7c9e6679-7425-40de-944b-e07fc1f90ae7", true},
		{"valid uppercase", "7C9E6679-7425-40DE-944B-E07FC1F90AE7", true},
		{"variant b", tenantA, true},
		{"wrong version nibble", "7c9e6679-7425-10de-944b-e07fc1f90ae7", false},
		{"wrong variant nibble", "7c9e6679-7425-40de-744b-e07fc1f90ae7", false},
		{"system literal", SystemTenant, false},
		{"missing dashes", "7c9e6679742540de944be07fc1f90ae7", false},
		{"trailing garbage", "7c9e6679-7425-40de-944b-e07fc1f90ae7x", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTenantID(tt.candidate))
		})
	}
}

func TestGenerateTenantID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateTenantID()
		require.True(t, IsValidTenantID(id), "generated id %q is not a valid v4 uuid", id)
		require.False(t, seen[id], "duplicate tenant id generated: %s", id)
		seen[id] = true
	}
}

func TestBuildKey(t *testing.T) {
	ns, _, _ := newTestNamespace(t)

	tests := []struct {
		name     string
		tenantID string
		resource ResourceType
		parts    KeyParts
		want     string
	}{
		{
			name:     "tenant and resource only",
			tenantID: tenantA,
			resource: ResourceListing,
			want:     tenantA + ":listing",
		},
		{
			name:     "with resource id",
			tenantID: tenantA,
			resource: ResourceListing,
			parts:    KeyParts{ResourceID: "l-100"},
			want:     tenantA + ":listing:l-100",
		},
		{
			name:     "all segments",
			tenantID: tenantA,
			resource: ResourceUser,
			parts:    KeyParts{SubType: "membership", ResourceID: "u-1", Action: "read"},
			want:     tenantA + ":user:membership:u-1:read",
		},
		{
			name:     "absent sub type is omitted not empty",
			tenantID: tenantA,
			resource: ResourceSite,
			parts:    KeyParts{ResourceID: "s-1", Action: "update"},
			want:     tenantA + ":site:s-1:update",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ns.BuildKey(tt.tenantID, tt.resource, tt.parts)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, Delimiter+Delimiter, "no two delimiters may be adjacent")
			assert.Equal(t, tt.tenantID, ExtractTenantID(got))
		})
	}
}

func TestBuildKey_EscapesDelimiterInComponents(t *testing.T) {
	ns, _, _ := newTestNamespace(t)

	key := ns.BuildKey(tenantA, ResourceHostname, KeyParts{ResourceID: "shop.example.com:8080"})
	assert.Equal(t, tenantA, ExtractTenantID(key))
	assert.Equal(t, "hostname", ExtractResourceType(key))

	parts := strings.Split(key, Delimiter)
	require.Len(t, parts, 3, "escaped component must not add segments")
	assert.Equal(t, "shop.example.com:8080", UnescapeComponent(parts[2]))
}

func TestBuildKey_MalformedTenantWarnsButBuilds(t *testing.T) {
	ns, _, hook := newTestNamespace(t)

	key := ns.BuildKey("not-a-uuid", ResourceListing, KeyParts{ResourceID: "l-1"})
	assert.Equal(t, "not-a-uuid:listing:l-1", key)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestBuildSystemKey(t *testing.T) {
	ns, _, hook := newTestNamespace(t)

	key := ns.BuildSystemKey(ResourceHostname, KeyParts{ResourceID: "shop.example.com"})
	assert.Equal(t, "system:hostname:shop.example.com", key)
	assert.Empty(t, hook.Entries, "system keys must not warn")
}

func TestExtractTenantID_LegacyKeyIsSystemScoped(t *testing.T) {
	assert.Equal(t, SystemTenant, ExtractTenantID("legacy-counter"))
	assert.Equal(t, SystemTenant, ExtractTenantID("system:config:maintenance"))
	assert.Equal(t, tenantA, ExtractTenantID(tenantA+":role:r-1"))
}

func TestExtractResourceType(t *testing.T) {
	assert.Equal(t, "role", ExtractResourceType(tenantA+":role:r-1"))
	assert.Equal(t, "hostname", ExtractResourceType("system:hostname:x"))
	assert.Equal(t, "", ExtractResourceType("legacy-counter"))
}

func TestValidateSameTenant_BothSystem(t *testing.T) {
	ns, recorder, _ := newTestNamespace(t)

	ok := ns.ValidateSameTenant(context.Background(), "system:config:a", "system:config:b", "u1")
	assert.True(t, ok)
	assert.Empty(t, recorder.Events())
}

func TestValidateSameTenant_SameTenant(t *testing.T) {
	ns, recorder, _ := newTestNamespace(t)

	ok := ns.ValidateSameTenant(context.Background(), tenantA+":user:u1", tenantA+":role:r1", "u1")
	assert.True(t, ok)
	assert.Empty(t, recorder.Events())
}

func TestValidateSameTenant_SystemToTenant(t *testing.T) {
	ns, recorder, _ := newTestNamespace(t)

	ok := ns.ValidateSameTenant(context.Background(), "system:hostname:example.com", tenantA+":role:r1", "u1")
	assert.True(t, ok)

	events := recorder.EventsByAction(audit.ActionSystemTenantKeyAccess)
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].ActorUserID)
	assert.Equal(t, tenantA, events[0].TenantID)
}

func TestValidateSameTenant_SystemToTenant_NoActorNoEvent(t *testing.T) {
	ns, recorder, _ := newTestNamespace(t)

	ok := ns.ValidateSameTenant(context.Background(), "system:hostname:example.com", tenantA+":role:r1", "")
	assert.True(t, ok)
	assert.Empty(t, recorder.Events())
}

func TestValidateSameTenant_CrossTenant(t *testing.T) {
	ns, recorder, _ := newTestNamespace(t)

	ok := ns.ValidateSameTenant(context.Background(), tenantA+":user:u1", tenantB+":user:u2", "u1")
	assert.False(t, ok)

	events := recorder.EventsByAction(audit.ActionCrossTenantKeyAccess)
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].ActorUserID)
	assert.Equal(t, tenantA, events[0].TenantID)
	assert.Equal(t, tenantB, events[0].Details["tenant_b"])
	assert.Len(t, recorder.Events(), 1, "exactly one event for one comparison")
}

func TestValidateSameTenant_CrossTenant_AnonymousStillAudited(t *testing.T) {
	ns, recorder, _ := newTestNamespace(t)

	ok := ns.ValidateSameTenant(context.Background(), tenantA+":user:u1", tenantB+":user:u2", "")
	assert.False(t, ok)

	events := recorder.EventsByAction(audit.ActionCrossTenantKeyAccess)
	require.Len(t, events, 1)
	assert.Equal(t, audit.AnonymousActor, events[0].ActorUserID)
}
