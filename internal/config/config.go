// Package config provides configuration management for the pipeline job.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingSourceURL   = errors.New("source.url is required")
	ErrInvalidSourceURL   = errors.New("source.url must be an absolute http(s) URL")
	ErrMissingTable       = errors.New("source.table is required")
	ErrInvalidTable       = errors.New("source.table must be a plain SQL identifier")
	ErrMissingDBHost      = errors.New("database.host is required")
	ErrMissingDBName      = errors.New("database.name is required")
	ErrMissingDBUser      = errors.New("database.user is required")
	ErrInvalidDBPort      = errors.New("database.port must be between 1 and 65535")
	ErrInvalidPingURL     = errors.New("monitor.ping_url must be an absolute http(s) URL")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidTimeout     = errors.New("timeout_sec must be at least 1")
	ErrInvalidMaxBodyKb   = errors.New("http.max_body_kb must be at least 1")
	ErrMissingPasswordEnv = errors.New("database.password_env names an unset environment variable")
)

// identifierPattern matches unquoted SQL identifiers; anything else in
// source.table is rejected rather than escaped.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config represents the complete pipeline configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Database DatabaseConfig `yaml:"database"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// SourceConfig identifies the page to scrape and the destination table.
type SourceConfig struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// DatabaseConfig contains the destination database settings. The password is
// taken from the environment variable named by password_env when set;
// password is a plain-text fallback for local runs.
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	PasswordEnv string `yaml:"password_env"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// MonitorConfig contains the Healthchecks-style ping settings. An empty
// ping_url disables monitoring.
type MonitorConfig struct {
	PingURL    string `yaml:"ping_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior. An empty file means stderr only.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// HTTPConfig contains settings for the scrape request.
type HTTPConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
	MaxBodyKb  int `yaml:"max_body_kb"`
}

// LoadConfig loads configuration from a YAML file, applies defaults,
// resolves environment-sourced secrets, and validates the result.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if cfg.Database.PasswordEnv != "" {
		pw, ok := os.LookupEnv(cfg.Database.PasswordEnv)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPasswordEnv, cfg.Database.PasswordEnv)
		}

		cfg.Database.Password = pw
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}

	if c.Database.TimeoutSec == 0 {
		c.Database.TimeoutSec = 10
	}

	if c.Monitor.TimeoutSec == 0 {
		c.Monitor.TimeoutSec = 10
	}

	if c.HTTP.TimeoutSec == 0 {
		c.HTTP.TimeoutSec = 30
	}

	if c.HTTP.MaxBodyKb == 0 {
		c.HTTP.MaxBodyKb = 4096
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return ErrMissingSourceURL
	}

	if err := validateHTTPURL(c.Source.URL); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSourceURL, c.Source.URL)
	}

	if c.Source.Table == "" {
		return ErrMissingTable
	}

	if !identifierPattern.MatchString(c.Source.Table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, c.Source.Table)
	}

	if c.Database.Host == "" {
		return ErrMissingDBHost
	}

	if c.Database.Name == "" {
		return ErrMissingDBName
	}

	if c.Database.User == "" {
		return ErrMissingDBUser
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidDBPort, c.Database.Port)
	}

	if c.Monitor.PingURL != "" {
		if err := validateHTTPURL(c.Monitor.PingURL); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidPingURL, c.Monitor.PingURL)
		}
	}

	for name, sec := range map[string]int{
		"database.timeout_sec": c.Database.TimeoutSec,
		"monitor.timeout_sec":  c.Monitor.TimeoutSec,
		"http.timeout_sec":     c.HTTP.TimeoutSec,
	} {
		if sec < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, name)
		}
	}

	if c.HTTP.MaxBodyKb < 1 {
		return ErrInvalidMaxBodyKb
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return ErrInvalidLogLevel
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("not an absolute http(s) URL")
	}

	return nil
}

// DSN builds a libpq-style connection string for the destination database.
func (d *DatabaseConfig) DSN() string {
	parts := []string{
		"host=" + quoteDSNValue(d.Host),
		fmt.Sprintf("port=%d", d.Port),
		"dbname=" + quoteDSNValue(d.Name),
		"user=" + quoteDSNValue(d.User),
		fmt.Sprintf("connect_timeout=%d", d.TimeoutSec),
	}

	if d.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(d.Password))
	}

	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes a connection string value when it contains
// characters that would break k=v parsing.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}

	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)

	return "'" + escaped + "'"
}

// Timeout returns the database connect/query timeout.
func (d *DatabaseConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSec) * time.Second
}

// Timeout returns the ping request timeout.
func (m *MonitorConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSec) * time.Second
}

// Timeout returns the scrape request timeout.
func (h *HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// String returns a string representation of the config without secrets.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s, Table: %s, Database: %s@%s:%d/%s}",
		c.Source.URL,
		c.Source.Table,
		c.Database.User,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
