package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when a nil config is passed to a function.
var ErrNilConfig = errors.New("nil config")

// HTTPConfig is the HTTP configuration for the server.
type HTTPConfig struct {
	// ListenAddr is the address on which the HTTP server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// PublicURL is the public URL of the HTTP server.
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`

	// CORS is the CORS configuration for the HTTP API.
	CORS CORSConfig `envPrefix:"CORS_" yaml:"cors"`
}

// CORSConfig is the CORS configuration for the HTTP API.
type CORSConfig struct {
	AllowedHeaders []string `env:"ALLOWED_HEADERS" yaml:"allowed_headers"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	AllowedMethods []string `env:"ALLOWED_METHODS" yaml:"allowed_methods"`
}

// StatsConfig is the configuration for the stats server.
type StatsConfig struct {
	// ListenAddr is the address on which the stats server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// DBConfig is the database connection configuration.
type DBConfig struct {
	// Driver is the driver for the database.
	// Valid values are "sqlite" and "postgres".
	Driver string `env:"DRIVER" yaml:"driver"`

	// DataSource is the database data source name.
	DataSource string `env:"DATA_SOURCE" yaml:"data_source"`
}

// AuthConfig configures the bearer tokens that identify callers.
type AuthConfig struct {
	// Secret is the HMAC secret used to sign and verify tokens.
	Secret string `env:"SECRET" yaml:"secret"`

	// Issuer is the expected token issuer. Defaults to the HTTP public URL.
	Issuer string `env:"ISSUER" yaml:"issuer"`

	// TTL is the lifetime of tokens issued by the token command.
	TTL time.Duration `env:"TTL" yaml:"ttl"`
}

// TeamsConfig holds team membership rules.
type TeamsConfig struct {
	// DefaultMaxMembers is the capacity given to teams created without one.
	DefaultMaxMembers int `env:"DEFAULT_MAX_MEMBERS" yaml:"default_max_members"`

	// MaxRetries bounds how many times a roster write is retried after a
	// concurrent modification.
	MaxRetries int `env:"MAX_RETRIES" yaml:"max_retries"`
}

// StoreConfig configures calls to the directory store.
type StoreConfig struct {
	// Timeout is applied to every single store call.
	Timeout time.Duration `env:"TIMEOUT" yaml:"timeout"`
}

// RateLimitConfig configures the Redis backed limiter for applications and
// invitations. It is disabled when RedisAddr is empty.
type RateLimitConfig struct {
	RedisAddr     string        `env:"REDIS_ADDR" yaml:"redis_addr"`
	RedisPassword string        `env:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int           `env:"REDIS_DB" yaml:"redis_db"`
	Requests      int           `env:"REQUESTS" yaml:"requests"`
	Window        time.Duration `env:"WINDOW" yaml:"window"`
}

// Config is the configuration for hackteam.
type Config struct {
	// Name is the name of the server.
	Name string `env:"NAME" yaml:"name"`

	// HTTP is the configuration for the HTTP server.
	HTTP HTTPConfig `envPrefix:"HTTP_" yaml:"http"`

	// Stats is the configuration for the stats server.
	Stats StatsConfig `envPrefix:"STATS_" yaml:"stats"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// DB is the database configuration.
	DB DBConfig `envPrefix:"DB_" yaml:"db"`

	// Auth is the caller authentication configuration.
	Auth AuthConfig `envPrefix:"AUTH_" yaml:"auth"`

	// Teams holds team membership rules.
	Teams TeamsConfig `envPrefix:"TEAMS_" yaml:"teams"`

	// Store configures directory store calls.
	Store StoreConfig `envPrefix:"STORE_" yaml:"store"`

	// RateLimit configures the application and invitation limiter.
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_" yaml:"rate_limit"`

	// DataPath is the path to the directory where hackteam will store its data.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

// Environ returns the config as a list of environment variables.
func (c *Config) Environ() []string {
	envs := []string{}
	if c == nil {
		return envs
	}

	// TODO: do this dynamically
	envs = append(envs, []string{
		fmt.Sprintf("HACKTEAM_DATA_PATH=%s", c.DataPath),
		fmt.Sprintf("HACKTEAM_NAME=%s", c.Name),
		fmt.Sprintf("HACKTEAM_HTTP_LISTEN_ADDR=%s", c.HTTP.ListenAddr),
		fmt.Sprintf("HACKTEAM_HTTP_PUBLIC_URL=%s", c.HTTP.PublicURL),
		fmt.Sprintf("HACKTEAM_HTTP_CORS_ALLOWED_HEADERS=%s", strings.Join(c.HTTP.CORS.AllowedHeaders, ",")),
		fmt.Sprintf("HACKTEAM_HTTP_CORS_ALLOWED_ORIGINS=%s", strings.Join(c.HTTP.CORS.AllowedOrigins, ",")),
		fmt.Sprintf("HACKTEAM_HTTP_CORS_ALLOWED_METHODS=%s", strings.Join(c.HTTP.CORS.AllowedMethods, ",")),
		fmt.Sprintf("HACKTEAM_STATS_LISTEN_ADDR=%s", c.Stats.ListenAddr),
		fmt.Sprintf("HACKTEAM_LOG_FORMAT=%s", c.Log.Format),
		fmt.Sprintf("HACKTEAM_LOG_TIME_FORMAT=%s", c.Log.TimeFormat),
		fmt.Sprintf("HACKTEAM_LOG_PATH=%s", c.Log.Path),
		fmt.Sprintf("HACKTEAM_DB_DRIVER=%s", c.DB.Driver),
		fmt.Sprintf("HACKTEAM_DB_DATA_SOURCE=%s", c.DB.DataSource),
		fmt.Sprintf("HACKTEAM_AUTH_ISSUER=%s", c.Auth.Issuer),
		fmt.Sprintf("HACKTEAM_AUTH_TTL=%s", c.Auth.TTL),
		fmt.Sprintf("HACKTEAM_TEAMS_DEFAULT_MAX_MEMBERS=%d", c.Teams.DefaultMaxMembers),
		fmt.Sprintf("HACKTEAM_TEAMS_MAX_RETRIES=%d", c.Teams.MaxRetries),
		fmt.Sprintf("HACKTEAM_STORE_TIMEOUT=%s", c.Store.Timeout),
		fmt.Sprintf("HACKTEAM_RATE_LIMIT_REDIS_ADDR=%s", c.RateLimit.RedisAddr),
		fmt.Sprintf("HACKTEAM_RATE_LIMIT_REDIS_DB=%d", c.RateLimit.RedisDB),
		fmt.Sprintf("HACKTEAM_RATE_LIMIT_REQUESTS=%d", c.RateLimit.Requests),
		fmt.Sprintf("HACKTEAM_RATE_LIMIT_WINDOW=%s", c.RateLimit.Window),
	}...)

	return envs
}

// IsDebug returns true if the server is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("HACKTEAM_DEBUG"))
	return debug
}

// IsVerbose returns true if the server is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("HACKTEAM_VERBOSE"))
	return IsDebug() && verbose
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	// Merge CORS origins from both config file and environment variables.
	origins := append([]string{}, cfg.HTTP.CORS.AllowedOrigins...)

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "HACKTEAM_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	if _, ok := os.LookupEnv("HACKTEAM_HTTP_CORS_ALLOWED_ORIGINS"); ok {
		cfg.HTTP.CORS.AllowedOrigins = mergeUnique(origins, cfg.HTTP.CORS.AllowedOrigins)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the default file path and environment variables.
// This also calls Validate() on the config.
func (c *Config) Parse() error {
	if err := c.ParseFile(); err != nil {
		return err
	}

	return c.ParseEnv()
}

// writeConfig writes the configuration to the given file.
func writeConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(newConfigFile(cfg)), 0o600) // nolint: errcheck, gosec
}

// WriteConfig writes the configuration to the default file.
func (c *Config) WriteConfig() error {
	return writeConfig(c, c.ConfigPath())
}

// DefaultDataPath returns the path to the data directory.
// It uses the HACKTEAM_DATA_PATH environment variable if set, otherwise it
// uses "data".
func DefaultDataPath() string {
	dp := os.Getenv("HACKTEAM_DATA_PATH")
	if dp == "" {
		dp = "data"
	}

	return dp
}

// ConfigPath returns the path to the config file.
// HACKTEAM_CONFIG_LOCATION takes precedence when it points to an existing file.
func (c *Config) ConfigPath() string { // nolint:revive
	if path := os.Getenv("HACKTEAM_CONFIG_LOCATION"); exist(path) {
		return path
	}
	return filepath.Join(c.DataPath, "config.yaml")
}

func exist(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	return exist(c.ConfigPath())
}

// DefaultConfig returns the default Config. All the path values are relative
// to the data directory.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	cfg := &Config{
		Name:     "Hackteam",
		DataPath: DefaultDataPath(),
		HTTP: HTTPConfig{
			ListenAddr: ":8080",
			PublicURL:  "http://localhost:8080",
			CORS: CORSConfig{
				AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "Authorization"},
				AllowedOrigins: []string{"http://localhost:3000"},
				AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			},
		},
		Stats: StatsConfig{
			ListenAddr: "localhost:8081",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
		},
		DB: DBConfig{
			Driver: "sqlite",
			DataSource: "hackteam.db" +
				"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		Auth: AuthConfig{
			TTL: 24 * time.Hour,
		},
		Teams: TeamsConfig{
			DefaultMaxMembers: 5,
			MaxRetries:        5,
		},
		Store: StoreConfig{
			Timeout: 5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 20,
			Window:   time.Minute,
		},
	}
	if exist(os.Getenv("HACKTEAM_CONFIG_LOCATION")) {
		_ = parseFile(cfg, os.Getenv("HACKTEAM_CONFIG_LOCATION"))
	}
	return cfg
}

// Validate validates the configuration.
// It updates the configuration with absolute paths.
func (c *Config) Validate() error {
	// Use absolute paths
	if !filepath.IsAbs(c.DataPath) {
		dp, err := filepath.Abs(c.DataPath)
		if err != nil {
			return err
		}
		c.DataPath = dp
	}

	c.HTTP.PublicURL = strings.TrimSuffix(c.HTTP.PublicURL, "/")
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = c.HTTP.PublicURL
	}

	if strings.HasPrefix(c.DB.Driver, "sqlite") && !filepath.IsAbs(c.DB.DataSource) {
		c.DB.DataSource = filepath.Join(c.DataPath, c.DB.DataSource)
	}

	if c.Teams.DefaultMaxMembers < 1 {
		return fmt.Errorf("teams.default_max_members must be at least 1, got %d", c.Teams.DefaultMaxMembers)
	}

	if c.Teams.MaxRetries < 0 {
		return fmt.Errorf("teams.max_retries must not be negative, got %d", c.Teams.MaxRetries)
	}

	if c.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout must not be negative, got %s", c.Store.Timeout)
	}

	return nil
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(a, b...) {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
