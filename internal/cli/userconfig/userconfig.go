package userconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "fleetctl"
	configFileName = "config.yaml"

	// EnvAPIURL overrides the configured API URL
	EnvAPIURL = "FLEETCTL_API_URL"

	DefaultAPIURL = "http://localhost:8080"
)

// UserConfig represents the user's local configuration stored in ~/.config/fleetctl/config.yaml
type UserConfig struct {
	APIURL string `yaml:"api_url"`
	Email  string `yaml:"email,omitempty"` // last email used to log in
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetAPIURL validates and stores the API URL
func SetAPIURL(raw string) error {
	apiURL, err := NormalizeAPIURL(raw)
	if err != nil {
		return err
	}

	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.APIURL = apiURL
	return Save(cfg)
}

// SetEmail remembers the last email used to log in
func SetEmail(email string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.Email = email
	return Save(cfg)
}

// ResolveAPIURL picks the API URL: flag, then FLEETCTL_API_URL, then the
// config file, then the default
func ResolveAPIURL(flag string) (string, error) {
	if flag != "" {
		return NormalizeAPIURL(flag)
	}
	if env := os.Getenv(EnvAPIURL); env != "" {
		return NormalizeAPIURL(env)
	}

	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.APIURL != "" {
		return NormalizeAPIURL(cfg.APIURL)
	}

	return DefaultAPIURL, nil
}

// NormalizeAPIURL checks that raw is an absolute http(s) URL and strips the
// trailing slash
func NormalizeAPIURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid API URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid API URL %q: must be http(s)://host[:port]", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// HostOf returns the host[:port] of an API URL, used to scope stored credentials
func HostOf(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return apiURL
	}
	return u.Host
}
