package app

import (
	"context"
	"testing"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(overrides map[string]any) *config.Config {
	v := viper.New()
	v.Set("store.backend", config.BackendMemory)
	v.Set("redis.enabled", false)
	v.Set("app.apex_domain", "shopfront.io")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.FromViper(v)
}

func TestNewMemoryBackend(t *testing.T) {
	a, err := New(context.Background(), testConfig(nil), zap.NewNop())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, config.BackendMemory, a.Backend)
	assert.IsType(t, &store.MemoryKV{}, a.KV)
	assert.IsType(t, store.NopPublisher{}, a.Events)
	assert.Nil(t, a.GitHub)
	assert.NoError(t, a.Ping(context.Background()))
	assert.NoError(t, a.Migrate(context.Background()))

	res, err := a.Subdomains.Provision(context.Background(), "acme")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestGitHubEnabled(t *testing.T) {
	a, err := New(context.Background(), testConfig(map[string]any{"auth.github_id": "cid", "auth.secret": "s"}), zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, a.GitHub)
}

func TestUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), testConfig(map[string]any{"store.backend": "postgress"}), zap.NewNop())
	assert.ErrorContains(t, err, `unknown store backend "postgress"`)
}

func TestPostgresFallback(t *testing.T) {
	cfg := testConfig(map[string]any{"store.backend": config.BackendPostgres, "database.port": 1})

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, a.Backend)

	_, err = New(context.Background(), cfg, zap.NewNop(), Strict())
	assert.Error(t, err)
}

func TestRedisEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	a, err := New(context.Background(), testConfig(map[string]any{"redis.enabled": true, "redis.addr": mr.Addr()}), zap.NewNop())
	require.NoError(t, err)
	defer a.Close(context.Background())
	assert.IsType(t, &store.RedisKV{}, a.KV)

	ctx := context.Background()
	_, err = a.Identity.EnsureOwner(ctx, identity("u1"))
	require.NoError(t, err)
	_, err = a.Stores.CreateStore(ctx, "u1", service.CreateStoreInput{Name: "Acme", Subdomain: "acme"})
	require.NoError(t, err)

	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer c.Close()
	n, err := c.XLen(ctx, store.EventsStream).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRedisUnavailable(t *testing.T) {
	a, err := New(context.Background(), testConfig(map[string]any{"redis.enabled": true, "redis.addr": "127.0.0.1:1"}), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryKV{}, a.KV)
	assert.IsType(t, store.NopPublisher{}, a.Events)
}

func identity(id string) domain.Identity {
	return domain.Identity{ID: id, Name: id, Email: id + "@example.com"}
}
