package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Loader    LoaderConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LoaderConfig holds library fetch and install configuration.
type LoaderConfig struct {
	// Catalog is a doublestar glob of YAML/TOML catalog files; empty uses the built-in set
	Catalog          string        `envconfig:"LIBRARY_CATALOG"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	InstallTimeout   time.Duration `envconfig:"INSTALL_TIMEOUT" default:"60s"`
	MaxRetries       int           `envconfig:"FETCH_RETRIES" default:"3"`
	RequestsPerSec   float64       `envconfig:"FETCH_RPS" default:"20"`
	CacheTTL         time.Duration `envconfig:"SOURCE_CACHE_TTL" default:"30m"`
	UserAgent        string        `envconfig:"FETCH_USER_AGENT" default:"docext/1.0"`
	BreakerThreshold uint32        `envconfig:"BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"BREAKER_COOLDOWN" default:"30s"`
}

// SandboxConfig holds snippet execution configuration.
type SandboxConfig struct {
	Timeout       time.Duration `envconfig:"SNIPPET_TIMEOUT" default:"5s"`
	EnableConsole bool          `envconfig:"SNIPPET_CONSOLE" default:"true"`
	MaxCallStack  int           `envconfig:"SNIPPET_MAX_STACK" default:"1024"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Loader: LoaderConfig{
			FetchTimeout:     30 * time.Second,
			InstallTimeout:   60 * time.Second,
			MaxRetries:       3,
			RequestsPerSec:   20,
			CacheTTL:         30 * time.Minute,
			UserAgent:        "docext/1.0",
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
		},
		Sandbox: SandboxConfig{
			Timeout:       5 * time.Second,
			EnableConsole: true,
			MaxCallStack:  1024,
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
