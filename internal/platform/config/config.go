// Package config loads coursegate configuration from an optional YAML file
// and COURSEGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	id "coursegate/pkg/domain"
)

// Store and cache backend names.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Config is the full configuration shared by the server and the CLI.
type Config struct {
	LogLevel string  `mapstructure:"log_level"`
	Server   Server  `mapstructure:"server"`
	Auth     Auth    `mapstructure:"auth"`
	Roles    Roles   `mapstructure:"roles"`
	Claims   Claims  `mapstructure:"claims"`
	Session  Session `mapstructure:"session"`
	Redis    Redis   `mapstructure:"redis"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	TrustProxy      bool          `mapstructure:"trust_proxy"`
	ProfileMaxAge   time.Duration `mapstructure:"profile_max_age"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Auth configures ID token signing and validation.
type Auth struct {
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// Roles selects the role table backend.
type Roles struct {
	Store       string `mapstructure:"store"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// Claims configures client-side claims resolution.
type Claims struct {
	BackendURL     string        `mapstructure:"backend_url"`
	CacheBackend   string        `mapstructure:"cache_backend"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	ValidityWindow time.Duration `mapstructure:"validity_window"`
	// FallbackRole is granted when resolution fails. Empty disables it.
	FallbackRole string `mapstructure:"fallback_role"`
}

// Session configures the session manager timers.
type Session struct {
	TokenRefreshInterval time.Duration `mapstructure:"token_refresh_interval"`
	InactivityThreshold  time.Duration `mapstructure:"inactivity_threshold"`
	InactivityCheck      time.Duration `mapstructure:"inactivity_check"`
}

// Redis configures the shared claims cache connection.
type Redis struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DevSigningKey is used when no signing key is configured. Never deploy with it.
const DevSigningKey = "dev-secret-key-change-in-production"

var defaults = map[string]any{
	"log_level": "info",

	"server.addr":             ":8080",
	"server.trust_proxy":      false,
	"server.profile_max_age":  time.Minute,
	"server.shutdown_timeout": 10 * time.Second,

	"auth.signing_key": DevSigningKey,
	"auth.issuer":      "coursegate-dev-idp",
	"auth.audience":    "coursegate",
	"auth.token_ttl":   time.Hour,

	"roles.store":        BackendMemory,
	"roles.postgres_dsn": "",

	"claims.backend_url":     "http://localhost:8080",
	"claims.cache_backend":   BackendMemory,
	"claims.sqlite_path":     "coursegate-claims.db",
	"claims.validity_window": 5 * time.Minute,
	"claims.fallback_role":   "",

	"session.token_refresh_interval": 50 * time.Minute,
	"session.inactivity_threshold":   30 * time.Minute,
	"session.inactivity_check":       time.Minute,

	"redis.url":            "",
	"redis.pool_size":      10,
	"redis.min_idle_conns": 2,
	"redis.dial_timeout":   5 * time.Second,
	"redis.read_timeout":   3 * time.Second,
	"redis.write_timeout":  3 * time.Second,
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ProfileMaxAge < 0 {
		errs = append(errs, errors.New("server.profile_max_age must not be negative"))
	}
	if c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("auth.signing_key is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	switch c.Roles.Store {
	case BackendMemory:
	case BackendPostgres:
		if c.Roles.PostgresDSN == "" {
			errs = append(errs, errors.New("roles.postgres_dsn is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("roles.store %q must be memory or postgres", c.Roles.Store))
	}

	switch c.Claims.CacheBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.Claims.SQLitePath == "" {
			errs = append(errs, errors.New("claims.sqlite_path is required for the sqlite cache"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("claims.cache_backend %q must be memory, sqlite or redis", c.Claims.CacheBackend))
	}
	if c.Claims.ValidityWindow <= 0 {
		errs = append(errs, errors.New("claims.validity_window must be positive"))
	}
	if c.Claims.FallbackRole != "" {
		if _, err := id.ParseRole(c.Claims.FallbackRole); err != nil {
			errs = append(errs, fmt.Errorf("claims.fallback_role: %w", err))
		}
	}

	if c.Session.TokenRefreshInterval <= 0 {
		errs = append(errs, errors.New("session.token_refresh_interval must be positive"))
	}
	if c.Session.InactivityThreshold <= 0 || c.Session.InactivityCheck <= 0 {
		errs = append(errs, errors.New("session inactivity durations must be positive"))
	}
	return errors.Join(errs...)
}

// FallbackRole returns the configured fallback role, or "" when disabled.
func (c *Config) FallbackRole() id.Role {
	role, err := id.ParseRole(c.Claims.FallbackRole)
	if err != nil {
		return ""
	}
	return role
}
