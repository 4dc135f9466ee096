// ABOUTME: Configuration loading and parsing for sqlpeek
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is absent from the config file.
const (
	DefaultHTTPAddr     = ":3000"
	DefaultAuthPath     = "auth.json"
	DefaultSessionTTL   = time.Hour
	DefaultQueryTimeout = 5 * time.Second
)

// Config represents the complete sqlpeek configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds the credential store location
type AuthConfig struct {
	CredentialsPath string `yaml:"credentials_path"`
}

// SessionConfig holds browser session configuration
type SessionConfig struct {
	TTL time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TTLRaw string `yaml:"ttl"`
}

// ViewerConfig holds database viewing configuration
type ViewerConfig struct {
	QueryTimeout time.Duration `yaml:"-"`

	QueryTimeoutRaw string `yaml:"query_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded. A missing file
// is not an error: the viewer runs fine on defaults plus SQLPEEK_* overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in any unset fields with the package defaults.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Auth.CredentialsPath == "" {
		c.Auth.CredentialsPath = DefaultAuthPath
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Viewer.QueryTimeout == 0 {
		c.Viewer.QueryTimeout = DefaultQueryTimeout
	}
}

// applyEnvOverrides applies SQLPEEK_ADDR and SQLPEEK_AUTH, which take
// precedence over both the config file and the defaults.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("SQLPEEK_ADDR"); addr != "" {
		c.Server.HTTPAddr = addr
	}
	if auth := os.Getenv("SQLPEEK_AUTH"); auth != "" {
		c.Auth.CredentialsPath = auth
	}
}

// Validate checks that all configuration fields are usable.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Auth.CredentialsPath == "" {
		return fmt.Errorf("auth.credentials_path is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Viewer.QueryTimeout <= 0 {
		return fmt.Errorf("viewer.query_timeout must be positive")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.TTLRaw != "" {
		cfg.Session.TTL, err = time.ParseDuration(cfg.Session.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session ttl %q: %w", cfg.Session.TTLRaw, err)
		}
	}

	if cfg.Viewer.QueryTimeoutRaw != "" {
		cfg.Viewer.QueryTimeout, err = time.ParseDuration(cfg.Viewer.QueryTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing query_timeout %q: %w", cfg.Viewer.QueryTimeoutRaw, err)
		}
	}

	return nil
}
