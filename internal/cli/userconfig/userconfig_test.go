package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "")
	return home
}

func TestLoad_MissingFile(t *testing.T) {
	withHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{}, cfg)
}

func TestSetAPIURL_RoundTrip(t *testing.T) {
	home := withHome(t)

	require.NoError(t, SetAPIURL("https://fleet.example.com/"))
	require.NoError(t, SetEmail("admin@fleet.com"))

	data, err := os.ReadFile(filepath.Join(home, ".config", "fleetctl", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "api_url: https://fleet.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://fleet.example.com", cfg.APIURL)
	assert.Equal(t, "admin@fleet.com", cfg.Email)
}

func TestSetAPIURL_Invalid(t *testing.T) {
	withHome(t)

	for _, raw := range []string{"fleet.example.com", "ftp://fleet.example.com", "http://"} {
		assert.Error(t, SetAPIURL(raw), raw)
	}
}

func TestResolveAPIURL_Precedence(t *testing.T) {
	withHome(t)

	got, err := ResolveAPIURL("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, got)

	require.NoError(t, SetAPIURL("http://from-config:8080"))
	got, err = ResolveAPIURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-config:8080", got)

	t.Setenv(EnvAPIURL, "http://from-env:8080")
	got, err = ResolveAPIURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8080", got)

	got, err = ResolveAPIURL("http://from-flag:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag:8080", got)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "fleet.example.com:8443", HostOf("https://fleet.example.com:8443"))
	assert.Equal(t, "localhost:8080", HostOf(DefaultAPIURL))
}
