package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Storage.DataPath = "/some/path"
	return cfg
}

// loadArgs points the loader at an empty .env so a developer's local file cannot leak in.
func loadArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	return append([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")}, extra...)
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"INFO", true},
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data path", func(c *Config) { c.Storage.DataPath = "" }},
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"page size zero", func(c *Config) { c.App.PageSize = 0 }},
		{"page size too large", func(c *Config) { c.App.PageSize = 101 }},
		{"negative access duration", func(c *Config) { c.Auth.AccessTokenDuration = -time.Minute }},
		{"zero sweep interval", func(c *Config) { c.Auth.SessionSweepInterval = 0 }},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	cfg, err := LoadConfig(loadArgs(t))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 20, cfg.App.PageSize)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, "shelfmark_session", cfg.Auth.CookieName)
	assert.Equal(t, 50, cfg.Seed.UserCap)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	dataPath := t.TempDir()
	t.Setenv("DATA_PATH", dataPath)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_DURATION", "5m")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := LoadConfig(loadArgs(t))
	require.NoError(t, err)

	assert.Equal(t, dataPath, cfg.Storage.DataPath)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(loadArgs(t, "-port", "7070", "-log-level", "debug"))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "app:\n  environment: staging\n  page_size: 50\nserver:\n  port: \"6060\"\nstorage:\n  data_path: " + dir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(loadArgs(t, "-config", path))
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, 50, cfg.App.PageSize)
	assert.Equal(t, "6060", cfg.Server.Port)
	assert.Equal(t, dir, cfg.Storage.DataPath)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("SEED_RATING_CAP=75\nDATA_PATH="+dir+"\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("SEED_RATING_CAP")
		_ = os.Unsetenv("DATA_PATH")
	})

	cfg, err := LoadConfig([]string{"-env-file", envPath})
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.Seed.RatingCap)
	assert.Equal(t, dir, cfg.Storage.DataPath)
}

func TestLoadConfig_InvalidEnvironment(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("ENV", "qa")

	_, err := LoadConfig(loadArgs(t))
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/shelf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "shelf"), got)

	got, err = expandPath("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	got, err = expandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoragePaths(t *testing.T) {
	s := StorageConfig{DataPath: "/data"}
	assert.Equal(t, "/data/shelfmark.db", s.DatabasePath())
	assert.Equal(t, "/data/searches", s.SearchesPath())
	assert.Equal(t, "/data/index", s.IndexPath())
	assert.Equal(t, "/data/auth.key", s.KeyPath())
}
