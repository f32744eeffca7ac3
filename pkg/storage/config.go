package storage

import (
	"fmt"

	"github.com/JaimeStill/rounds/pkg/envvar"
)

// MaxListCap bounds the page size requested from the blob service.
const MaxListCap int32 = 5000

// Config holds Azure Blob Storage connection parameters.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Finalize applies defaults, then overrides from <prefix>CONTAINER_NAME,
// <prefix>CONNECTION_STRING and <prefix>MAX_LIST_SIZE, then validates.
// An empty prefix skips the environment.
func (c *Config) Finalize(prefix string) error {
	if c.ContainerName == "" {
		c.ContainerName = "rounds-archive"
	}
	if c.MaxListSize == 0 {
		c.MaxListSize = 50
	}

	if prefix != "" {
		envvar.String(prefix+"CONTAINER_NAME", &c.ContainerName)
		envvar.String(prefix+"CONNECTION_STRING", &c.ConnectionString)
		if err := envvar.Int32(prefix+"MAX_LIST_SIZE", &c.MaxListSize); err != nil {
			return err
		}
	}

	c.MaxListSize = min(c.MaxListSize, MaxListCap)
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.MaxListSize != 0 {
		c.MaxListSize = overlay.MaxListSize
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ConnectionString == "" {
		return fmt.Errorf("connection_string required")
	}
	if c.MaxListSize < 1 {
		return fmt.Errorf("max_list_size must be positive")
	}
	return nil
}
