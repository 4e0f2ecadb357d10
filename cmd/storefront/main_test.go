package main

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runConfig(overrides map[string]any) *config.Config {
	v := viper.New()
	v.Set("store.backend", config.BackendMemory)
	v.Set("redis.enabled", false)
	v.Set("app.apex_domain", "shopfront.io")
	v.Set("http.addr", "127.0.0.1:0")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return config.FromViper(v)
}

func TestRun_InitErrorReturned(t *testing.T) {
	err := run(context.Background(), runConfig(map[string]any{"store.backend": "postgress"}), zap.NewNop())
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown store backend "postgress"`)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, runConfig(nil), zap.NewNop()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_ListenErrorReturned(t *testing.T) {
	err := run(context.Background(), runConfig(map[string]any{"http.addr": "127.0.0.1:-1"}), zap.NewNop())
	require.Error(t, err)
	assert.ErrorContains(t, err, "HTTP server stopped")
}
