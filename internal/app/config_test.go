package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agoralabs/agora/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 50, cfg.Server.RateLimit.MaxRequests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "agora-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 15*time.Minute, cfg.Auth.Reset.TokenTTL)

	require.False(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@every 30m", cfg.Maintenance.SessionSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 168*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 30*time.Minute, cfg.Auth.Reset.TokenTTL)
	require.True(t, cfg.Maintenance.Enabled)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{
			JWT: JWTSettings{
				Secret: "secret",
				Issuer: "issuer",
				TTL:    30 * time.Minute,
			},
			Reset: ResetSettings{
				TokenTTL: 10 * time.Minute,
			},
		},
	}

	jwtCfg := cfg.Auth.JWTServiceConfig()
	require.Equal(t, auth.JWTConfig{
		Secret:   "secret",
		Issuer:   "issuer",
		TokenTTL: 30 * time.Minute,
	}, jwtCfg)

	credCfg := cfg.Auth.CredentialServiceConfig()
	require.Equal(t, 10*time.Minute, credCfg.ResetTokenTTL)
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultTokenTTL, jwtCfg.TokenTTL)
}

func TestDatabaseStoreConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "Postgres",
		Postgres: DBAuthConfig{
			Host:     "db.example.com",
			Port:     5433,
			Database: "agora",
			Username: "agora",
			Password: "secret",
		},
	}

	store := cfg.StoreConfig()
	require.Equal(t, "postgres", store.Driver)
	require.Equal(t, "db.example.com", store.Host)
	require.Equal(t, 5433, store.Port)
	require.Equal(t, "agora", store.Name)

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/agora.sqlite"}.StoreConfig()
	require.Equal(t, "sqlite", sqlite.Driver)
	require.Equal(t, "./data/agora.sqlite", sqlite.Path)
}
