package pagination

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/rounds/pkg/envvar"
)

// Config bounds the page sizes a list request may ask for.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// Finalize applies defaults, then overrides from <prefix>DEFAULT_PAGE_SIZE
// and <prefix>MAX_PAGE_SIZE, then validates. An empty prefix skips the
// environment.
func (c *Config) Finalize(prefix string) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}

	if prefix != "" {
		err := errors.Join(
			envvar.Int(prefix+"DEFAULT_PAGE_SIZE", &c.DefaultPageSize),
			envvar.Int(prefix+"MAX_PAGE_SIZE", &c.MaxPageSize),
		)
		if err != nil {
			return err
		}
	}

	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func (c *Config) validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default_page_size must be positive")
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("max_page_size must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size cannot exceed max_page_size")
	}
	return nil
}
