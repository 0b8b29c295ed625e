package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(mapLookup(map[string]string{"JWT_SECRET": testSecret}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/auth", cfg.AuthEntryPath)
	assert.Equal(t, "/dashboard", cfg.DashboardPath)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenExpiry)
	assert.Equal(t, 15*time.Second, cfg.RemoteTimeout)
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_SQLiteRequiresLongSecret(t *testing.T) {
	_, err := Load(mapLookup(map[string]string{"JWT_SECRET": "short"}))
	assert.Error(t, err)
}

func TestLoad_RemoteRequiresURLAndKey(t *testing.T) {
	_, err := Load(mapLookup(map[string]string{"STORE_DRIVER": "remote"}))
	assert.Error(t, err)

	cfg, err := Load(mapLookup(map[string]string{
		"STORE_DRIVER":   "REMOTE",
		"REMOTE_URL":     "https://example.supabase.co/",
		"REMOTE_API_KEY": "anon",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverRemote, cfg.StoreDriver)
	assert.Equal(t, "https://example.supabase.co", cfg.RemoteURL)
}

func TestLoad_UnknownDriver(t *testing.T) {
	_, err := Load(mapLookup(map[string]string{"STORE_DRIVER": "mongo", "JWT_SECRET": testSecret}))
	assert.Error(t, err)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	cfg, err := Load(mapLookup(map[string]string{
		"JWT_SECRET":          testSecret,
		"ACCESS_TOKEN_EXPIRY": "soon",
		"RATE_LIMIT_BURST":    "many",
		"RATE_LIMIT_RPS":      "-3",
		"ALLOWED_ORIGINS":     " https://a.example , ,https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, 60*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 30, cfg.RateLimitBurst)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}
