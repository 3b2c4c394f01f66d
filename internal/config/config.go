// Package config loads process configuration for the API server and the
// confirmation worker.
//
// Values are layered: built-in defaults, then the YAML file named by
// --config (or CONFIG_FILE), then environment variables, then
// command-line flags. Later layers override earlier ones.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrHelp is returned by Load when -h or --help was given
var ErrHelp = pflag.ErrHelp

// Config is the full process configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cities   CitiesConfig   `yaml:"cities"`
	Auth     AuthConfig     `yaml:"auth"`
	Temporal TemporalConfig `yaml:"temporal"`
	Log      LogConfig      `yaml:"log"`
	Orders   OrdersConfig   `yaml:"orders"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the storage backend
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver string `yaml:"driver"`
	// URL is the Postgres connection string
	URL string `yaml:"url"`
	// SQLitePath is the database file for the sqlite driver
	SQLitePath string `yaml:"sqlite_path"`
	// PoolSize bounds the sqlite connection pool; 0 picks a default
	PoolSize int `yaml:"pool_size"`
}

// CitiesConfig locates the city coordinate dataset
type CitiesConfig struct {
	Path      string        `yaml:"path"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
}

// AuthConfig holds the shared secret of the token issuer
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// TemporalConfig locates the Temporal frontend
type TemporalConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace"`
}

// LogConfig configures the process logger
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

// OrdersConfig throttles order submission per identity
type OrdersConfig struct {
	// RatePerMinute of 0 disables the limit
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Burst         int     `yaml:"burst"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			SQLitePath: "airline.db",
		},
		Cities: CitiesConfig{
			Path:      "data/worldcities.csv",
			CacheTTL:  24 * time.Hour,
			CacheSize: 1024,
		},
		Temporal: TemporalConfig{
			Enabled:   true,
			Host:      "localhost:7233",
			Namespace: "default",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Orders: OrdersConfig{
			RatePerMinute: 30,
			Burst:         5,
		},
	}
}

// Load builds the configuration for the program name from args
// (without the program name) and the environment lookup function.
func Load(name string, args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	path, err := configPath(name, args)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path, _ = lookupEnv("CONFIG_FILE")
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}

	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", path, "path to a YAML config file")
	cfg.AddFlags(flags)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath parses args once against throwaway defaults to find the
// file before the real layers are applied
func configPath(name string, args []string) (string, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	path := flags.String("config", "", "")
	Default().AddFlags(flags)
	if err := flags.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return "", err
	}
	return *path, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// AddFlags binds every setting to a flag whose default is the current value
func (c *Config) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Server.Port, "port", c.Server.Port, "HTTP listen port")
	flags.DurationVar(&c.Server.ShutdownTimeout, "shutdown-timeout", c.Server.ShutdownTimeout, "graceful shutdown deadline")

	flags.StringVar(&c.Database.Driver, "database-driver", c.Database.Driver, "storage backend: postgres or sqlite")
	flags.StringVar(&c.Database.URL, "database-url", c.Database.URL, "Postgres connection string")
	flags.StringVar(&c.Database.SQLitePath, "sqlite-path", c.Database.SQLitePath, "SQLite database file")
	flags.IntVar(&c.Database.PoolSize, "sqlite-pool-size", c.Database.PoolSize, "SQLite connection pool size")

	flags.StringVar(&c.Cities.Path, "cities", c.Cities.Path, "city coordinates CSV")
	flags.DurationVar(&c.Cities.CacheTTL, "city-cache-ttl", c.Cities.CacheTTL, "how long looked-up coordinates are cached")

	flags.StringVar(&c.Auth.Secret, "auth-secret", c.Auth.Secret, "HMAC secret of the token issuer")

	flags.BoolVar(&c.Temporal.Enabled, "temporal", c.Temporal.Enabled, "start order confirmation workflows")
	flags.StringVar(&c.Temporal.Host, "temporal-host", c.Temporal.Host, "Temporal frontend host:port")
	flags.StringVar(&c.Temporal.Namespace, "temporal-namespace", c.Temporal.Namespace, "Temporal namespace")

	flags.StringVar(&c.Log.Level, "log-level", c.Log.Level, "debug, info, warn or error")
	flags.StringVar(&c.Log.Format, "log-format", c.Log.Format, "text or json")

	flags.Float64Var(&c.Orders.RatePerMinute, "order-rate", c.Orders.RatePerMinute, "orders per minute per identity, 0 disables")
	flags.IntVar(&c.Orders.Burst, "order-burst", c.Orders.Burst, "order burst size per identity")
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	parse := func(key string, fn func(string) error) {
		if v, ok := lookup(key); ok && v != "" {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("config: %s: %w", key, err))
			}
		}
	}

	str("API_PORT", &c.Server.Port)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("SQLITE_PATH", &c.Database.SQLitePath)
	str("DATA_CITIES_PATH", &c.Cities.Path)
	str("AUTH_SECRET", &c.Auth.Secret)
	str("TEMPORAL_HOST", &c.Temporal.Host)
	str("TEMPORAL_NAMESPACE", &c.Temporal.Namespace)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	parse("SHUTDOWN_TIMEOUT", func(v string) (err error) {
		c.Server.ShutdownTimeout, err = time.ParseDuration(v)
		return err
	})
	parse("SQLITE_POOL_SIZE", func(v string) (err error) {
		c.Database.PoolSize, err = strconv.Atoi(v)
		return err
	})
	parse("CITY_CACHE_TTL", func(v string) (err error) {
		c.Cities.CacheTTL, err = time.ParseDuration(v)
		return err
	})
	parse("TEMPORAL_ENABLED", func(v string) (err error) {
		c.Temporal.Enabled, err = strconv.ParseBool(v)
		return err
	})
	parse("ORDER_RATE_PER_MINUTE", func(v string) (err error) {
		c.Orders.RatePerMinute, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("ORDER_BURST", func(v string) (err error) {
		c.Orders.Burst, err = strconv.Atoi(v)
		return err
	})
	return errors.Join(errs...)
}

// Validate checks settings shared by the server and the worker
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Database.Driver) {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("config: database url is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("config: sqlite path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown database driver %q", c.Database.Driver))
	}
	if c.Database.PoolSize < 0 {
		errs = append(errs, errors.New("config: sqlite pool size must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", c.Log.Level))
	}
	if c.Temporal.Enabled && c.Temporal.Host == "" {
		errs = append(errs, errors.New("config: temporal host is required when temporal is enabled"))
	}
	return errors.Join(errs...)
}

// ValidateServer additionally checks settings only the API server uses
func (c *Config) ValidateServer() error {
	errs := []error{c.Validate()}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("config: server port is required"))
	}
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("config: auth secret is required"))
	}
	if c.Cities.Path == "" {
		errs = append(errs, errors.New("config: cities path is required"))
	}
	if c.Cities.CacheTTL < 0 || c.Cities.CacheSize < 0 {
		errs = append(errs, errors.New("config: city cache ttl and size must not be negative"))
	}
	if c.Orders.RatePerMinute < 0 {
		errs = append(errs, errors.New("config: order rate must not be negative"))
	}
	if c.Orders.RatePerMinute > 0 && c.Orders.Burst < 1 {
		errs = append(errs, errors.New("config: order burst must be at least 1"))
	}
	return errors.Join(errs...)
}
