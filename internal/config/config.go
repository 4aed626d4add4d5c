// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cloudkeeper/core/types"
	"cloudkeeper/internal/errors"
	"cloudkeeper/internal/logging"
)

// Account store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Data contains dataset configuration
	Data DataConfig `json:"data"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Query contains query defaults
	Query QueryConfig `json:"query"`

	// Accounts contains account store configuration
	Accounts AccountsConfig `json:"accounts"`

	// Mail contains OTP mail configuration
	Mail MailConfig `json:"mail"`

	// Session contains cookie session configuration
	Session SessionConfig `json:"session"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// DataConfig locates the pricing dataset
type DataConfig struct {
	// CSVPath is the instance pricing CSV
	CSVPath string `json:"csv_path"`
}

// ServerConfig contains HTTP settings
type ServerConfig struct {
	Address        string        `json:"address"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	EnableCORS     bool          `json:"enable_cors"`
	AllowedOrigins []string      `json:"allowed_origins"`
	EnableMetrics  bool          `json:"enable_metrics"`
}

// QueryConfig contains defaults applied when a parameter is absent
type QueryConfig struct {
	DefaultLimit  string `json:"default_limit"`
	DefaultSortBy string `json:"default_sort_by"`
}

// AccountsConfig contains account settings
type AccountsConfig struct {
	// Backend is memory or postgres
	Backend string `json:"backend"`

	// DSN is the PostgreSQL connection string
	DSN string `json:"-"`

	// AllowedDomain restricts signup to one email domain
	AllowedDomain string `json:"allowed_domain"`

	MinPasswordLength int `json:"min_password_length"`
}

// MailConfig contains SMTP settings
type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	FromName string `json:"from_name"`

	// LogOnly writes OTPs to the log instead of sending them
	LogOnly bool `json:"log_only"`
}

// SessionConfig contains cookie session settings
type SessionConfig struct {
	CookieName string `json:"cookie_name"`
	TTLSeconds int    `json:"ttl_seconds"`
	Secure     bool   `json:"secure"`
}

// TTL returns the session lifetime
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Data: DataConfig{
			CSVPath: filepath.Join("data", "ec2_instance_prices.csv"),
		},
		Server: ServerConfig{
			Address:        ":5002",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			EnableCORS:     true,
			AllowedOrigins: []string{"*"},
			EnableMetrics:  true,
		},
		Query: QueryConfig{
			DefaultLimit:  "20",
			DefaultSortBy: string(types.DefaultSortField),
		},
		Accounts: AccountsConfig{
			Backend:           BackendMemory,
			AllowedDomain:     "cloudkeeper.com",
			MinPasswordLength: 4,
		},
		Mail: MailConfig{
			Host:     "smtp.gmail.com",
			Port:     587,
			FromName: "CloudKeeper Support",
		},
		Session: SessionConfig{
			CookieName: "cloudkeeper_session",
			TTLSeconds: 86400, // 24 hours
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, errors.Wrap(errors.TypeConfig, "failed to read config file", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "failed to parse config file", err)
	}

	return config, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding what is already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(errors.TypeConfig, err, "failed to load %s", f)
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CLOUDKEEPER_CSV_PATH"); ok && v != "" {
		c.Data.CSVPath = v
	}
	if v, ok := lookup("CLOUDKEEPER_ADDR"); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Accounts.DSN = v
		c.Accounts.Backend = BackendPostgres
	}
	if v, ok := lookup("EMAIL_USER"); ok {
		c.Mail.Username = v
	}
	if v, ok := lookup("PASSWORD"); ok {
		c.Mail.Password = v
	}
	if v, ok := lookup("SMTP_HOST"); ok && v != "" {
		c.Mail.Host = v
	}
	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(errors.TypeConfig, err, "invalid SMTP_PORT %q", v)
		}
		c.Mail.Port = port
	}
	return nil
}

// Validate checks the configuration for inconsistent values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.Config("server.address is required")
	}
	switch c.Accounts.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Accounts.DSN == "" {
			return errors.Config("accounts.backend postgres requires DATABASE_URL")
		}
	default:
		return errors.Newf(errors.TypeConfig, "unknown accounts.backend %q", c.Accounts.Backend)
	}
	if c.Accounts.AllowedDomain == "" {
		return errors.Config("accounts.allowed_domain is required")
	}
	if c.Accounts.MinPasswordLength < 1 {
		return errors.Config("accounts.min_password_length must be positive")
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return errors.Newf(errors.TypeConfig, "mail.port out of range: %d", c.Mail.Port)
	}
	if c.Session.CookieName == "" {
		return errors.Config("session.cookie_name is required")
	}
	if c.Session.TTLSeconds <= 0 {
		return errors.Config("session.ttl_seconds must be positive")
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
