package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Session SessionConfig `toml:"session"`
	Keys    KeysConfig    `toml:"keys"`
	API     APIConfig     `toml:"api"`
	UI      UIConfig      `toml:"ui"`
}

// StorageConfig selects and configures the persistent key-value backend.
type StorageConfig struct {
	Driver       string      `toml:"driver"` // sqlite, redis or memory
	Path         string      `toml:"path"`
	MaxOpenConns int         `toml:"max_open_conns"`
	MaxIdleConns int         `toml:"max_idle_conns"`
	Timeout      Duration    `toml:"timeout"`
	Redis        RedisConfig `toml:"redis"`
}

// RedisConfig contains connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// SessionConfig controls how the session gate discovers credential changes.
type SessionConfig struct {
	PollInterval Duration `toml:"poll_interval"`
}

// KeysConfig names the storage keys owned by the client.
type KeysConfig struct {
	Token     string `toml:"token"`
	User      string `toml:"user"`
	Favorites string `toml:"favorites"`
	Theme     string `toml:"theme"`
}

// APIConfig contains remote API endpoints.
type APIConfig struct {
	AuthURL    string   `toml:"auth_url"`
	CatalogURL string   `toml:"catalog_url"`
	CoversURL  string   `toml:"covers_url"`
	UserAgent  string   `toml:"user_agent"`
	Timeout    Duration `toml:"timeout"`
	RateLimit  float64  `toml:"rate_limit"` // catalog requests per second, 0 disables limiting
}

// UIConfig contains terminal interface settings.
type UIConfig struct {
	SearchLimit int `toml:"search_limit"`
}

// Duration wraps [time.Duration] so it can be written as "500ms" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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
