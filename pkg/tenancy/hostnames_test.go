package tenancy

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/storage"
)

func setupResolver(t *testing.T) (*Resolver, *miniredis.Miniredis) {
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
	return NewResolver(kv, keyspace.New(logger, nil), logger), mr
}

func TestResolveHostname(t *testing.T) {
	r, mr := setupResolver(t)
	require.NoError(t, mr.Set("system:hostname:shop.example.com", tenantA))

	tenant, err := r.ResolveHostname(context.Background(), "shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, tenantA, tenant)
}

func TestResolveHostname_NormalizesHostAndPort(t *testing.T) {
	r, mr := setupResolver(t)
	require.NoError(t, mr.Set("system:hostname:shop.example.com", tenantA))

	tenant, err := r.ResolveHostname(context.Background(), "Shop.Example.COM:8443")
	require.NoError(t, err)
	assert.Equal(t, tenantA, tenant)
}

func TestResolveHostname_Unknown(t *testing.T) {
	r, _ := setupResolver(t)

	_, err := r.ResolveHostname(context.Background(), "nobody.example.com")
	assert.ErrorIs(t, err, ErrUnknownHost)
}

func TestResolveHostname_MalformedRecord(t *testing.T) {
	r, mr := setupResolver(t)
	require.NoError(t, mr.Set("system:hostname:bad.example.com", "not-a-tenant-id"))

	_, err := r.ResolveHostname(context.Background(), "bad.example.com")
	assert.ErrorIs(t, err, ErrUnknownHost)
}
