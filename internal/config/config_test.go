package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("server", nil, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Cities.CacheTTL)
	assert.Equal(t, "localhost:7233", cfg.Temporal.Host)
	assert.True(t, cfg.Temporal.Enabled)
	assert.NoError(t, cfg.Validate())
	assert.ErrorContains(t, cfg.ValidateServer(), "auth secret is required")
}

func TestLayering(t *testing.T) {
	path := writeFile(t, `
server:
  port: "9000"
  shutdown_timeout: 5s
database:
  driver: postgres
  url: postgres://file
cities:
  cache_ttl: 10m
log:
  level: debug
`)

	tests := []struct {
		name  string
		args  []string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "file overrides defaults",
			args: []string{"--config", path},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9000", cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, DriverPostgres, cfg.Database.Driver)
				assert.Equal(t, 10*time.Minute, cfg.Cities.CacheTTL)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
			},
		},
		{
			name: "file from environment",
			env:  map[string]string{"CONFIG_FILE": path},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9000", cfg.Server.Port)
			},
		},
		{
			name: "environment overrides file",
			args: []string{"--config=" + path},
			env: map[string]string{
				"API_PORT":       "9100",
				"DATABASE_URL":   "postgres://env",
				"CITY_CACHE_TTL": "1m",
				"AUTH_SECRET":    "s3cret",
				"ORDER_BURST":    "2",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9100", cfg.Server.Port)
				assert.Equal(t, "postgres://env", cfg.Database.URL)
				assert.Equal(t, time.Minute, cfg.Cities.CacheTTL)
				assert.Equal(t, "s3cret", cfg.Auth.Secret)
				assert.Equal(t, 2, cfg.Orders.Burst)
			},
		},
		{
			name: "flags override environment",
			args: []string{"--config", path, "--port", "9200", "--temporal=false", "--order-rate", "0"},
			env:  map[string]string{"API_PORT": "9100", "TEMPORAL_ENABLED": "true"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9200", cfg.Server.Port)
				assert.False(t, cfg.Temporal.Enabled)
				assert.Zero(t, cfg.Orders.RatePerMinute)
				assert.Equal(t, "postgres://file", cfg.Database.URL)
			},
		},
		{
			name: "empty environment values are ignored",
			env:  map[string]string{"API_PORT": "", "LOG_LEVEL": ""},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Server.Port)
				assert.Equal(t, "info", cfg.Log.Level)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("server", tt.args, env(tt.env))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load("server", []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, env(nil))
		assert.ErrorContains(t, err, "config: read")
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeFile(t, "server: [")
		_, err := Load("server", []string{"--config", path}, env(nil))
		assert.ErrorContains(t, err, "config: parse")
	})

	t.Run("bad environment values", func(t *testing.T) {
		_, err := Load("server", nil, env(map[string]string{
			"CITY_CACHE_TTL": "forever",
			"ORDER_BURST":    "many",
		}))
		assert.ErrorContains(t, err, "CITY_CACHE_TTL")
		assert.ErrorContains(t, err, "ORDER_BURST")
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := Load("server", []string{"--bogus"}, env(nil))
		assert.Error(t, err)
	})

	t.Run("help", func(t *testing.T) {
		_, err := Load("server", []string{"--help"}, env(nil))
		assert.ErrorIs(t, err, ErrHelp)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Auth.Secret = "secret"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(cfg *Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unknown database driver"},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, "database url is required"},
		{"sqlite without path", func(c *Config) { c.Database.SQLitePath = "" }, "sqlite path is required"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{"temporal without host", func(c *Config) { c.Temporal.Host = "" }, "temporal host is required"},
		{"temporal disabled without host", func(c *Config) { c.Temporal.Enabled = false; c.Temporal.Host = "" }, ""},
		{"no secret", func(c *Config) { c.Auth.Secret = "" }, "auth secret is required"},
		{"no port", func(c *Config) { c.Server.Port = "" }, "server port is required"},
		{"negative rate", func(c *Config) { c.Orders.RatePerMinute = -1 }, "order rate must not be negative"},
		{"zero burst", func(c *Config) { c.Orders.Burst = 0 }, "order burst must be at least 1"},
		{"zero burst without limit", func(c *Config) { c.Orders.Burst = 0; c.Orders.RatePerMinute = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateServer()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
