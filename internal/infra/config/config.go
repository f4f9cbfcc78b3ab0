// Package config loads runtime configuration: built-in defaults, then an
// optional YAML file, then TOOLHOST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TOOLHOST"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	LogFormat   string         `mapstructure:"log_format"`
	Database    DatabaseConfig `mapstructure:"database"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	Auth        AuthConfig     `mapstructure:"auth"`
	MCP         MCPConfig      `mapstructure:"mcp"`
}

type DatabaseConfig struct {
	Path        string `mapstructure:"path"`
	SeedCatalog bool   `mapstructure:"seed_catalog"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	TokenExpiry time.Duration  `mapstructure:"token_expiry"`
	Clients     []ClientConfig `mapstructure:"clients"`
}

// ClientConfig is an API client allowed to exchange its secret for a token.
// SecretHash is a bcrypt hash.
type ClientConfig struct {
	ID          string   `mapstructure:"id"`
	SecretHash  string   `mapstructure:"secret_hash"`
	Permissions []string `mapstructure:"permissions"`
}

type MCPConfig struct {
	Name    string `mapstructure:"name"`
	Enabled bool   `mapstructure:"enabled"`
}

// Client returns the configured client with id.
func (a AuthConfig) Client(id string) (ClientConfig, bool) {
	for _, c := range a.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return ClientConfig{}, false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("database.path", "./data/toolhost.db")
	v.SetDefault("database.seed_catalog", true)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiry", 24*time.Hour)
	v.SetDefault("mcp.name", "toolhost")
	v.SetDefault("mcp.enabled", true)
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first problem found in cfg.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("%w: http.addr is required", ErrInvalidConfig)
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: http.shutdown_timeout must be positive", ErrInvalidConfig)
	}
	if !c.Auth.Enabled {
		return nil
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("%w: auth.jwt_secret must be at least 16 characters", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Auth.Clients))
	for i, client := range c.Auth.Clients {
		if client.ID == "" || client.SecretHash == "" {
			return fmt.Errorf("%w: auth.clients[%d] needs id and secret_hash", ErrInvalidConfig, i)
		}
		if _, dup := seen[client.ID]; dup {
			return fmt.Errorf("%w: auth.clients[%d] duplicate id %q", ErrInvalidConfig, i, client.ID)
		}
		seen[client.ID] = struct{}{}
	}
	return nil
}
