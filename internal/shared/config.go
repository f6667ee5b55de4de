package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values read from the config file.
const (
	EnvCatalogKey = "WATCHWAVE_TMDB_KEY"
	EnvAuthURL    = "WATCHWAVE_AUTH_URL"
	EnvDBPath     = "WATCHWAVE_DB_PATH"
	EnvLogLevel   = "WATCHWAVE_LOG_LEVEL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Auth          AuthConfig          `toml:"auth"`
	Catalog       CatalogConfig       `toml:"catalog"`
	Database      DatabaseConfig      `toml:"database"`
	Notifications NotificationsConfig `toml:"notifications"`
	Log           LogConfig           `toml:"log"`
}

// AuthConfig points at the remote authentication service.
type AuthConfig struct {
	BaseURL      string   `toml:"base_url"`
	RegisterPath string   `toml:"register_path"`
	Timeout      Duration `toml:"timeout"`
}

// CatalogConfig contains the catalog (TMDB) API settings.
type CatalogConfig struct {
	BaseURL      string  `toml:"base_url"`
	APIKey       string  `toml:"api_key"`
	Language     string  `toml:"language"`
	ImageBaseURL string  `toml:"image_base_url"`
	RateLimit    float64 `toml:"rate_limit"`
	Retries      uint    `toml:"retries"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// NotificationsConfig controls how long a notification stays current.
type NotificationsConfig struct {
	TTL Duration `toml:"ttl"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Duration is a [time.Duration] that decodes from TOML strings such as "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values with any non-empty watchwave environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvCatalogKey)); v != "" {
		c.Catalog.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvAuthURL)); v != "" {
		c.Auth.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvDBPath)); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}
