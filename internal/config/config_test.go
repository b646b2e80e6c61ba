package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, 5*time.Second, cfg.CallbackTimeout)
	assert.Contains(t, cfg.CORSAllowedOrigins, "http://localhost:5173")
	assert.Empty(t, cfg.AdminEmails)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PING_INTERVAL", "5s")
	t.Setenv("ADMIN_EMAILS", "Root@Example.com, ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.PingInterval)
	assert.True(t, cfg.IsAdminEmail("root@example.com"))
	assert.True(t, cfg.IsAdminEmail(" OPS@example.com "))
	assert.False(t, cfg.IsAdminEmail("user@example.com"))
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("CALLBACK_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CALLBACK_TIMEOUT")
}

func TestLoad_NonPositiveDuration(t *testing.T) {
	t.Setenv("PING_INTERVAL", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PING_INTERVAL must be > 0")
}

func TestLoad_ProdRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTERNAL_API_TOKEN")

	t.Setenv("INTERNAL_API_TOKEN", "upstream-token")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProdLike())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notifyhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"9090\"\nLOG_LEVEL: debug\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}
