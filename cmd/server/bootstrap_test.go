package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agoralabs/agora/internal/app"
)

func testConfig() *app.Config {
	cfg := &app.Config{}
	cfg.Server.Port = 0
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file::memory:?cache=shared&_foreign_keys=1"
	cfg.Auth.JWT.Secret = "bootstrap-test-secret"
	cfg.Auth.JWT.Issuer = "agora"
	cfg.Auth.JWT.TTL = time.Hour
	return cfg
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	log := zap.NewNop()

	stack, err := bootstrapRuntime(testConfig(), log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(log) })

	require.NotNil(t, stack.DB)
	require.NotNil(t, stack.JWTSvc)
	require.NotNil(t, stack.SessionSvc)
	require.NotNil(t, stack.CredentialSvc)
	require.Nil(t, stack.Cleaner)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v3/health", nil)
	stack.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestBootstrapRuntimeStartsCleaner(t *testing.T) {
	log := zap.NewNop()

	cfg := testConfig()
	cfg.Maintenance.Enabled = true
	cfg.Maintenance.SessionSchedule = "@every 1h"
	cfg.Maintenance.TokenSchedule = "@every 24h"

	stack, err := bootstrapRuntime(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(log) })

	require.NotNil(t, stack.Cleaner)
	require.NoError(t, stack.Cleaner.RunOnce())
}

func TestEnsureSecretsPresent(t *testing.T) {
	require.Error(t, ensureSecretsPresent(nil))

	cfg := &app.Config{}
	require.Error(t, ensureSecretsPresent(cfg))

	cfg.Auth.JWT.Secret = "  secret  "
	require.NoError(t, ensureSecretsPresent(cfg))
	require.Equal(t, "secret", cfg.Auth.JWT.Secret)
}
