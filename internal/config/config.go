package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the portal, the dev API and the worker
type Config struct {
	Portal PortalConfig

	API APIConfig

	Auth AuthConfig

	// Database Configuration (dev API)
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig
}

// PortalConfig holds the web frontend configuration
type PortalConfig struct {
	Addr         string
	DatabaseURL  string // per-browser session storage
	CookieSecure bool

	// Credential endpoints (login, register, password reset) per client IP.
	// A non-positive rate disables limiting.
	AuthRateLimit float64
	AuthBurst     int
}

// APIConfig describes how the portal reaches the fleet API
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// AuthConfig holds the dev API's token settings
type AuthConfig struct {
	Addr          string
	JWTSecret     string
	JWTExpiry     time.Duration
	ResetURL      string // base of the link mailed by forgot-password
	ResetTokenTTL time.Duration
	PortalOrigin  string // allowed CORS origin
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port); empty disables task queueing
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiTimeout, err := durationEnv("API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	jwtExpiry, err := durationEnv("JWT_EXPIRY", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	resetTTL, err := durationEnv("RESET_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cookieSecure, err := boolEnv("COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}

	authRate, err := floatEnv("AUTH_RATE_LIMIT", 0.5)
	if err != nil {
		return nil, err
	}
	authBurst, err := intEnv("AUTH_RATE_BURST", 10)
	if err != nil {
		return nil, err
	}

	portalAddr := stringEnv("PORTAL_ADDR", ":3000")
	portalOrigin := stringEnv("PORTAL_ORIGIN", "http://localhost:3000")

	return &Config{
		Portal: PortalConfig{
			Addr:          portalAddr,
			DatabaseURL:   stringEnv("PORTAL_DATABASE_URL", "portal.sqlite"),
			CookieSecure:  cookieSecure,
			AuthRateLimit: authRate,
			AuthBurst:     authBurst,
		},
		API: APIConfig{
			URL:     stringEnv("FLEET_API_URL", "http://localhost:8080"),
			Timeout: apiTimeout,
		},
		Auth: AuthConfig{
			Addr:          stringEnv("DEVAPI_ADDR", ":8080"),
			JWTSecret:     os.Getenv("JWT_SECRET"),
			JWTExpiry:     jwtExpiry,
			ResetURL:      stringEnv("RESET_URL", portalOrigin+"/reset-password"),
			ResetTokenTTL: resetTTL,
			PortalOrigin:  portalOrigin,
		},
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "fleet.sqlite"),
		},
		Redis: RedisConfig{
			Address: os.Getenv("REDIS_ADDRESS"),
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
