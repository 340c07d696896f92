package shared

import (
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Env      EnvConfig      `toml:"env"`
	Blizzard BlizzardConfig `toml:"blizzard"`
	Proxy    ProxyConfig    `toml:"proxy"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"`
	Index     string `toml:"index"`
	Metrics   bool   `toml:"metrics"`
}

// EnvConfig points at the optional KEY=VALUE file merged into the process environment.
type EnvConfig struct {
	File string `toml:"file"`
}

// BlizzardConfig contains the OAuth2 token endpoint and the trusted API domains.
//
// Client credentials are read from the environment, never from here.
type BlizzardConfig struct {
	TokenURL            string   `toml:"token_url"`
	AllowedDomains      []string `toml:"allowed_domains"`
	TokenTimeoutSeconds int      `toml:"token_timeout_seconds"`
}

// ProxyConfig contains outbound fetch settings shared by both proxy routes.
type ProxyConfig struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the listen address for the server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// TokenTimeout returns the token endpoint timeout as a [time.Duration].
func (b BlizzardConfig) TokenTimeout() time.Duration {
	return time.Duration(b.TokenTimeoutSeconds) * time.Second
}

// Timeout returns the outbound fetch timeout as a [time.Duration].
func (p ProxyConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the defaults from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports settings that would keep the server from starting.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Blizzard.TokenURL == "" {
		return fmt.Errorf("%w: blizzard.token_url is required", ErrInvalidConfig)
	}
	if len(c.Blizzard.AllowedDomains) == 0 {
		return fmt.Errorf("%w: blizzard.allowed_domains must not be empty", ErrInvalidConfig)
	}
	if c.Blizzard.TokenTimeoutSeconds <= 0 || c.Proxy.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
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
