package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Signing   SigningConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8600"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StorageConfig holds on-disk store configuration.
type StorageConfig struct {
	DataDir string `envconfig:"DATA_DIR" default:"/var/lib/tabnote"`
}

// SigningConfig holds attachment signed-URL configuration.
type SigningConfig struct {
	Secret     string        `envconfig:"SIGNING_SECRET" default:"tabnote-dev-secret"`
	TTL        time.Duration `envconfig:"SIGNING_TTL" default:"15m"`
	RemoteAddr string        `envconfig:"SIGNER_ADDR" default:""`
}

// SandboxConfig holds sandbox rendering configuration.
type SandboxConfig struct {
	MinHeightPx       int           `envconfig:"SANDBOX_MIN_HEIGHT" default:"48"`
	DefaultHeightPx   int           `envconfig:"SANDBOX_DEFAULT_HEIGHT" default:"320"`
	FirstPaintTimeout time.Duration `envconfig:"SANDBOX_FIRST_PAINT_TIMEOUT" default:"3s"`
	ScriptTimeout     time.Duration `envconfig:"SANDBOX_SCRIPT_TIMEOUT" default:"2s"`
	Sanitize          bool          `envconfig:"SANDBOX_SANITIZE" default:"true"`
	PoolSize          int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	PoolTimeout       time.Duration `envconfig:"SANDBOX_POOL_TIMEOUT" default:"5s"`
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
			Port: "8600",
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			DataDir: "/var/lib/tabnote",
		},
		Signing: SigningConfig{
			Secret: "tabnote-dev-secret",
			TTL:    15 * time.Minute,
		},
		Sandbox: SandboxConfig{
			MinHeightPx:       48,
			DefaultHeightPx:   320,
			FirstPaintTimeout: 3 * time.Second,
			ScriptTimeout:     2 * time.Second,
			Sanitize:          true,
			PoolSize:          4,
			PoolTimeout:       5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
