package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORTAL_ADDR", "FLEET_API_URL", "API_TIMEOUT", "PORTAL_DATABASE_URL", "COOKIE_SECURE",
		"DEVAPI_ADDR", "DATABASE_URL", "JWT_SECRET", "JWT_EXPIRY", "RESET_URL", "RESET_TOKEN_TTL",
		"PORTAL_ORIGIN", "REDIS_ADDRESS", "LOG_LEVEL", "LOG_FORMAT", "AUTH_RATE_LIMIT", "AUTH_RATE_BURST",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Portal.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.Portal.CookieSecure)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, "http://localhost:3000/reset-password", cfg.Auth.ResetURL)
	assert.Empty(t, cfg.Redis.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 0.5, cfg.Portal.AuthRateLimit)
	assert.Equal(t, 10, cfg.Portal.AuthBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FLEET_API_URL", "https://fleet.example.com")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("AUTH_RATE_LIMIT", "0")
	t.Setenv("AUTH_RATE_BURST", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://fleet.example.com", cfg.API.URL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Portal.CookieSecure)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Zero(t, cfg.Portal.AuthRateLimit)
	assert.Equal(t, 3, cfg.Portal.AuthBurst)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "API_TIMEOUT")

	t.Setenv("API_TIMEOUT", "")
	t.Setenv("COOKIE_SECURE", "maybe")
	_, err = Load()
	assert.ErrorContains(t, err, "COOKIE_SECURE")

	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("AUTH_RATE_BURST", "lots")
	_, err = Load()
	assert.ErrorContains(t, err, "AUTH_RATE_BURST")
}
