// Package config loads the rounds configuration from config.toml, an optional
// config.<env>.toml overlay, and ROUNDS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/rounds/pkg/database"
	"github.com/JaimeStill/rounds/pkg/pagination"
	"github.com/JaimeStill/rounds/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRoundsEnv             = "ROUNDS_ENV"
	EnvRoundsShutdownTimeout = "ROUNDS_SHUTDOWN_TIMEOUT"
	EnvRoundsVersion         = "ROUNDS_VERSION"
	EnvRoundsStore           = "ROUNDS_STORE"
	EnvRoundsArchive         = "ROUNDS_ARCHIVE"
)

// Case store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Turn archive backends.
const (
	ArchiveBlob = "blob"
	ArchiveNone = "none"
)

// Environment prefixes of the infrastructure sub-configs.
const (
	databaseEnvPrefix   = "ROUNDS_DB_"
	storageEnvPrefix    = "ROUNDS_STORAGE_"
	paginationEnvPrefix = "ROUNDS_PAGINATION_"
)

// Config is the root configuration for rounds.
type Config struct {
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Pagination      pagination.Config `toml:"pagination"`
	Oracle          OracleConfig      `toml:"oracle"`
	Pipeline        PipelineConfig    `toml:"pipeline"`
	Logging         LoggingConfig     `toml:"logging"`
	Store           string            `toml:"store"`
	Archive         string            `toml:"archive"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the ROUNDS_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRoundsEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// UsesDatabase reports whether cases are stored in Postgres.
func (c *Config) UsesDatabase() bool {
	return c.Store == StorePostgres
}

// UsesArchive reports whether turn records are archived to blob storage.
func (c *Config) UsesArchive() bool {
	return c.Archive == ArchiveBlob
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base config path.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.Archive != "" {
		c.Archive = overlay.Archive
	}
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Pagination.Merge(&overlay.Pagination)
	c.Oracle.Merge(&overlay.Oracle)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Logging.Merge(&overlay.Logging)
}

// Finalize applies defaults, environment overrides, and validation. The
// database and storage sections are only finalized when their backend is
// selected.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if c.UsesDatabase() {
		if err := c.Database.Finalize(databaseEnvPrefix); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.UsesArchive() {
		if err := c.Storage.Finalize(storageEnvPrefix); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	if err := c.Pagination.Finalize(paginationEnvPrefix); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Oracle.Finalize(); err != nil {
		return fmt.Errorf("oracle: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.Store == "" {
		c.Store = StorePostgres
	}
	if c.Archive == "" {
		c.Archive = ArchiveNone
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvRoundsShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvRoundsVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvRoundsStore); v != "" {
		c.Store = v
	}
	if v := os.Getenv(EnvRoundsArchive); v != "" {
		c.Archive = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if !slices.Contains([]string{StorePostgres, StoreMemory}, c.Store) {
		return fmt.Errorf("invalid store %q: must be %s or %s", c.Store, StorePostgres, StoreMemory)
	}
	if !slices.Contains([]string{ArchiveBlob, ArchiveNone}, c.Archive) {
		return fmt.Errorf("invalid archive %q: must be %s or %s", c.Archive, ArchiveBlob, ArchiveNone)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// overlayPath returns the config.<env>.toml next to base, if it exists.
func overlayPath(base string) string {
	if env := os.Getenv(EnvRoundsEnv); env != "" {
		path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
