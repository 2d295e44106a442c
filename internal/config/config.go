// Package config loads Shelfmark configuration from defaults, an optional YAML file,
// a .env file, environment variables and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable that points at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Logger    LoggerConfig    `koanf:"logger"`
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Storage   StorageConfig   `koanf:"storage"`
	Seed      SeedConfig      `koanf:"seed"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
	PageSize    int    `koanf:"page_size"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // empty picks by environment
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name            string        `koanf:"name"`
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key, set by auth.LoadOrGenerateKey at startup.
	AccessTokenKey []byte `koanf:"-"`

	AccessTokenDuration  time.Duration `koanf:"access_token_duration"`
	RefreshTokenDuration time.Duration `koanf:"refresh_token_duration"`
	SessionSweepInterval time.Duration `koanf:"session_sweep_interval"`
	CookieName           string        `koanf:"cookie_name"`
	CookieSecure         bool          `koanf:"cookie_secure"`
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	DataPath string `koanf:"data_path"`
}

// DatabasePath is the SQLite database file.
func (s StorageConfig) DatabasePath() string {
	return filepath.Join(s.DataPath, "shelfmark.db")
}

// SearchesPath is the badger directory holding saved search snapshots.
func (s StorageConfig) SearchesPath() string {
	return filepath.Join(s.DataPath, "searches")
}

// IndexPath is the bleve quick-search index directory.
func (s StorageConfig) IndexPath() string {
	return filepath.Join(s.DataPath, "index")
}

// KeyPath is the file holding the access token key.
func (s StorageConfig) KeyPath() string {
	return filepath.Join(s.DataPath, "auth.key")
}

// SeedConfig holds bulk-load limits.
type SeedConfig struct {
	UserCap   int `koanf:"user_cap"`
	RatingCap int `koanf:"rating_cap"`
}

// RateLimitConfig holds request throttling configuration.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerMinute int     `koanf:"requests_per_minute"`
	AuthPerSecond     float64 `koanf:"auth_per_second"`
	AuthBurst         int     `koanf:"auth_burst"`
}

// Defaults returns a Config populated with built-in defaults.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Environment: "development",
			PageSize:    20,
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Name:            "Shelfmark",
			Host:            "",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Auth: AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 720 * time.Hour,
			SessionSweepInterval: time.Hour,
			CookieName:           "shelfmark_session",
		},
		Storage: StorageConfig{
			DataPath: "~/Shelfmark",
		},
		Seed: SeedConfig{
			UserCap:   50,
			RatingCap: 50,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 300,
			AuthPerSecond:     0.2,
			AuthBurst:         10,
		},
	}
}

// envMappings maps environment variables to koanf paths. Anything else in the
// environment is ignored.
var envMappings = map[string]string{
	"ENV":                    "app.environment",
	"PAGE_SIZE":              "app.page_size",
	"LOG_LEVEL":              "logger.level",
	"LOG_FORMAT":             "logger.format",
	"SERVER_NAME":            "server.name",
	"SERVER_HOST":            "server.host",
	"SERVER_PORT":            "server.port",
	"SERVER_READ_TIMEOUT":    "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":   "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":    "server.idle_timeout",
	"SHUTDOWN_TIMEOUT":       "server.shutdown_timeout",
	"CORS_ORIGINS":           "server.cors_origins",
	"ACCESS_TOKEN_DURATION":  "auth.access_token_duration",
	"REFRESH_TOKEN_DURATION": "auth.refresh_token_duration",
	"SESSION_SWEEP_INTERVAL": "auth.session_sweep_interval",
	"COOKIE_NAME":            "auth.cookie_name",
	"COOKIE_SECURE":          "auth.cookie_secure",
	"DATA_PATH":              "storage.data_path",
	"SEED_USER_CAP":          "seed.user_cap",
	"SEED_RATING_CAP":        "seed.rating_cap",
	"RATE_LIMIT_ENABLED":     "rate_limit.enabled",
	"RATE_LIMIT_PER_MINUTE":  "rate_limit.requests_per_minute",
	"AUTH_RATE_PER_SECOND":   "rate_limit.auth_per_second",
	"AUTH_RATE_BURST":        "rate_limit.auth_burst",
}

// flagMappings maps command-line flags to koanf paths.
var flagMappings = map[string]string{
	"env":       "app.environment",
	"log-level": "logger.level",
	"data-path": "storage.data_path",
	"host":      "server.host",
	"port":      "server.port",
}

// sliceConfigPaths are parsed from comma-separated strings when they arrive from the environment.
var sliceConfigPaths = []string{"server.cors_origins"}

// LoadConfig loads configuration with precedence, lowest first:
// defaults, YAML file, .env file, environment variables, command-line flags.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("shelfmark", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	fs.String("env", "", "Environment (development, staging, production)")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("data-path", "", "Directory for the database, index and keys")
	fs.String("host", "", "Listen host")
	fs.String("port", "", "Listen port (default: 8080)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := *configPath
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Existing environment variables win over the .env file.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", *envFile, err)
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagMappings[f.Name]; ok && flagErr == nil {
			flagErr = k.Set(key, f.Value.String())
		}
	})
	if flagErr != nil {
		return nil, fmt.Errorf("failed to apply flags: %w", flagErr)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	expanded, err := expandPath(cfg.Storage.DataPath)
	if err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	cfg.Storage.DataPath = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envTransformFunc returns the koanf path for a known variable and "" for the rest.
func envTransformFunc(key string) string {
	return envMappings[key]
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "" && c.Logger.Format != "json" && c.Logger.Format != "pretty" {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty")
	}

	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}

	if c.App.PageSize < 1 || c.App.PageSize > 100 {
		return fmt.Errorf("page size must be between 1 and 100, got %d", c.App.PageSize)
	}

	durations := map[string]time.Duration{
		"read timeout":           c.Server.ReadTimeout,
		"write timeout":          c.Server.WriteTimeout,
		"idle timeout":           c.Server.IdleTimeout,
		"shutdown timeout":       c.Server.ShutdownTimeout,
		"access token duration":  c.Auth.AccessTokenDuration,
		"refresh token duration": c.Auth.RefreshTokenDuration,
		"session sweep interval": c.Auth.SessionSweepInterval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}
