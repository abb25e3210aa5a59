package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all client configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Storage   StorageConfig
	GuestCart GuestCartConfig
	Log       LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Currency string // ISO 4217 code used when rendering prices
}

// APIConfig holds settings for the storefront REST backend
type APIConfig struct {
	BaseURL string        // versioned base path, e.g. https://shop.example.com/api/v1
	Timeout time.Duration // per-request timeout
}

// StorageConfig holds durable client-side storage settings
type StorageConfig struct {
	Dir         string // directory for the session record and local databases
	SessionFile string // file name of the persisted session record
}

// GuestCartConfig holds the local-only fallback cart settings
type GuestCartConfig struct {
	Enabled bool
	DBFile  string // SQLite file name under Storage.Dir
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SHOP_ prefix (e.g. SHOP_API_BASE_URL)
// 2. config.toml in the working directory or ~/.shopfront
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".shopfront"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Currency: v.GetString("app.currency"),
		},
		API: APIConfig{
			BaseURL: v.GetString("api.base_url"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Storage: StorageConfig{
			Dir:         v.GetString("storage.dir"),
			SessionFile: v.GetString("storage.session_file"),
		},
		GuestCart: GuestCartConfig{
			Enabled: v.GetBool("guest_cart.enabled"),
			DBFile:  v.GetString("guest_cart.db_file"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg, v)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config, v *viper.Viper) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shopfront-client"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Currency == "" {
		cfg.App.Currency = "USD"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000/api/v1"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 15 * time.Second
	}
	if cfg.Storage.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Storage.Dir = filepath.Join(home, ".shopfront")
		} else {
			cfg.Storage.Dir = ".shopfront"
		}
	}
	if cfg.Storage.SessionFile == "" {
		cfg.Storage.SessionFile = "session.json"
	}
	if cfg.GuestCart.DBFile == "" {
		cfg.GuestCart.DBFile = "guest.db"
	}
	// Guest cart is on unless explicitly disabled
	if !v.IsSet("guest_cart.enabled") {
		cfg.GuestCart.Enabled = true
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.App.Env == "production" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use https in production")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if len(c.App.Currency) != 3 {
		return fmt.Errorf("app.currency must be a 3-letter ISO 4217 code, got %q", c.App.Currency)
	}
	return nil
}

// SessionPath returns the absolute path of the persisted session record.
func (s *StorageConfig) SessionPath() string {
	return filepath.Join(s.Dir, s.SessionFile)
}

// GuestCartPath returns the absolute path of the local fallback database.
func (c *Config) GuestCartPath() string {
	return filepath.Join(c.Storage.Dir, c.GuestCart.DBFile)
}
