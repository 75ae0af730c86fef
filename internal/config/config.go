package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
	Store             StoreConfig   `mapstructure:"store" yaml:"store"`
	JWT               JWTConfig     `mapstructure:"jwt" yaml:"jwt"`
}

// StoreConfig selects and locates the message store.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// JWTConfig configures session tokens for the current-user endpoint.
// An empty Secret disables the endpoint.
type JWTConfig struct {
	Secret   string        `mapstructure:"secret" yaml:"secret"`
	Issuer   string        `mapstructure:"issuer" yaml:"issuer"`
	Audience string        `mapstructure:"audience" yaml:"audience"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MetricsEnabled:    true,
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "pollchat.db",
		},
		JWT: JWTConfig{
			Issuer:   "pollchat",
			Audience: "pollchat-client",
			TTL:      24 * time.Hour,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// MetricsEnabled is a bool and therefore never treated as set; callers toggle it directly.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.JWT.Secret != "" {
		c.JWT.Secret = other.JWT.Secret
	}
	if other.JWT.Issuer != "" {
		c.JWT.Issuer = other.JWT.Issuer
	}
	if other.JWT.Audience != "" {
		c.JWT.Audience = other.JWT.Audience
	}
	if other.JWT.TTL != 0 {
		c.JWT.TTL = other.JWT.TTL
	}
}

// Validate reports configuration that cannot be started with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverBadger:
	default:
		return fmt.Errorf("unknown store driver %q (want %s or %s)", c.Store.Driver, DriverSQLite, DriverBadger)
	}
	if c.Store.Driver == DriverSQLite && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for %s", DriverSQLite)
	}
	if c.JWT.Secret != "" && c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be positive")
	}
	return nil
}
