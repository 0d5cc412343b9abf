package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/bcnelson/pkg-groups/internal/logging"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Registry RegistryConfig
	Apply    ApplyConfig
	Auth     AuthConfig
	OIDC     OIDCConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// StoreConfig holds the initial contents of the group store.
type StoreConfig struct {
	GroupsFile string `env:"GROUPS_FILE"` // HuJSON record read once at startup
	EventBuffer int   `env:"EVENT_BUFFER" envDefault:"64"`
}

// RegistryConfig holds extension registry configuration.
type RegistryConfig struct {
	File           string `env:"REGISTRY_FILE"` // file-backed registry shim; empty means an in-memory registry
	IncludeBundled bool   `env:"INCLUDE_BUNDLED" envDefault:"false"`
}

// ApplyConfig holds registry apply behavior configuration.
type ApplyConfig struct {
	AutoApply bool          `env:"AUTO_APPLY" envDefault:"false"`
	Debounce  time.Duration `env:"APPLY_DEBOUNCE" envDefault:"2s"`
}

// AuthConfig holds static API key configuration.
type AuthConfig struct {
	APIKeys []string `env:"API_KEYS" envSeparator:","`
}

// OIDCConfig holds OIDC bearer token configuration.
type OIDCConfig struct {
	Enabled        bool   `env:"OIDC_ENABLED" envDefault:"false"`
	IssuerURL      string `env:"OIDC_ISSUER_URL"`
	ClientID       string `env:"OIDC_CLIENT_ID"`
	AllowedDomains string `env:"OIDC_ALLOWED_DOMAINS"`
}

// GetAllowedDomains returns the allowed domains as a slice.
func (c *OIDCConfig) GetAllowedDomains() []string {
	if c.AllowedDomains == "" {
		return nil
	}
	var domains []string
	for _, d := range strings.Split(c.AllowedDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}
	if err := env.Parse(&cfg.Store); err != nil {
		return nil, fmt.Errorf("parsing store config: %w", err)
	}
	if err := env.Parse(&cfg.Registry); err != nil {
		return nil, fmt.Errorf("parsing registry config: %w", err)
	}
	if err := env.Parse(&cfg.Apply); err != nil {
		return nil, fmt.Errorf("parsing apply config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}
	if err := env.Parse(&cfg.OIDC); err != nil {
		return nil, fmt.Errorf("parsing oidc config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Development: c.Log.Development}
}

// Keys returns the configured keys with blanks removed.
func (c *AuthConfig) Keys() []string {
	var keys []string
	for _, k := range c.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 0 and 65535")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.Store.EventBuffer < 1 {
		return fmt.Errorf("EVENT_BUFFER must be at least 1")
	}

	if c.Apply.Debounce < 0 {
		return fmt.Errorf("APPLY_DEBOUNCE must not be negative")
	}

	if c.OIDC.Enabled {
		if c.OIDC.IssuerURL == "" {
			return fmt.Errorf("OIDC_ISSUER_URL is required when OIDC is enabled")
		}
		if u, err := url.Parse(c.OIDC.IssuerURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("OIDC_ISSUER_URL must be an absolute URL")
		}
		if c.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC is enabled")
		}
	}

	if len(c.Auth.Keys()) == 0 && !c.OIDC.Enabled {
		return fmt.Errorf("API_KEYS is required unless OIDC is enabled")
	}

	return nil
}
