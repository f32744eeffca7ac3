package database

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/JaimeStill/rounds/pkg/envvar"
)

// Config holds PostgreSQL connection parameters. When DSN is set it is used
// as is and the discrete connection fields are ignored.
type Config struct {
	DSN             string `toml:"dsn"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// URL returns the connection string in postgres:// form, which both the pgx
// driver and golang-migrate accept.
func (c *Config) URL() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Finalize applies defaults, then overrides from <prefix>DSN, <prefix>HOST,
// <prefix>PORT and so on, then validates. An empty prefix skips the
// environment.
func (c *Config) Finalize(prefix string) error {
	c.loadDefaults()
	if prefix != "" {
		if err := c.loadEnv(prefix); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	mergeString(&c.DSN, overlay.DSN)
	mergeString(&c.Host, overlay.Host)
	mergeString(&c.Name, overlay.Name)
	mergeString(&c.User, overlay.User)
	mergeString(&c.Password, overlay.Password)
	mergeString(&c.SSLMode, overlay.SSLMode)
	mergeString(&c.ConnMaxLifetime, overlay.ConnMaxLifetime)
	mergeString(&c.ConnTimeout, overlay.ConnTimeout)
	mergeInt(&c.Port, overlay.Port)
	mergeInt(&c.MaxOpenConns, overlay.MaxOpenConns)
	mergeInt(&c.MaxIdleConns, overlay.MaxIdleConns)
}

func (c *Config) loadDefaults() {
	c.Host = first(c.Host, "localhost")
	c.Name = first(c.Name, "rounds")
	c.SSLMode = first(c.SSLMode, "disable")
	c.ConnMaxLifetime = first(c.ConnMaxLifetime, "15m")
	c.ConnTimeout = first(c.ConnTimeout, "5s")
	c.Port = first(c.Port, 5432)
	c.MaxOpenConns = first(c.MaxOpenConns, 25)
	c.MaxIdleConns = first(c.MaxIdleConns, 5)
}

func (c *Config) loadEnv(prefix string) error {
	envvar.String(prefix+"DSN", &c.DSN)
	envvar.String(prefix+"HOST", &c.Host)
	envvar.String(prefix+"NAME", &c.Name)
	envvar.String(prefix+"USER", &c.User)
	envvar.String(prefix+"PASSWORD", &c.Password)
	envvar.String(prefix+"SSL_MODE", &c.SSLMode)
	envvar.String(prefix+"CONN_MAX_LIFETIME", &c.ConnMaxLifetime)
	envvar.String(prefix+"CONN_TIMEOUT", &c.ConnTimeout)

	return errors.Join(
		envvar.Int(prefix+"PORT", &c.Port),
		envvar.Int(prefix+"MAX_OPEN_CONNS", &c.MaxOpenConns),
		envvar.Int(prefix+"MAX_IDLE_CONNS", &c.MaxIdleConns),
	)
}

func (c *Config) validate() error {
	if c.DSN == "" {
		if c.Name == "" {
			return fmt.Errorf("name required")
		}
		if c.User == "" {
			return fmt.Errorf("user required")
		}
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot exceed max_open_conns")
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func first[T comparable](v, fallback T) T {
	var zero T
	if v != zero {
		return v
	}
	return fallback
}
