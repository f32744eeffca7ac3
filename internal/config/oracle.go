package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/JaimeStill/rounds/pkg/formatting"
)

const (
	EnvOracleProvider        = "ROUNDS_ORACLE_PROVIDER"
	EnvOracleScript          = "ROUNDS_ORACLE_SCRIPT"
	EnvOraclePrompts         = "ROUNDS_ORACLE_PROMPTS"
	EnvOracleMaxResponseSize = "ROUNDS_ORACLE_MAX_RESPONSE_SIZE"
)

// Oracle backends.
const (
	OracleAgent  = "agent"
	OracleScript = "script"
)

// OracleConfig selects and configures the reasoning oracle backend.
type OracleConfig struct {
	Provider        string      `toml:"provider"`
	Script          string      `toml:"script"`
	Prompts         string      `toml:"prompts"`
	MaxResponseSize string      `toml:"max_response_size"`
	Agent           AgentConfig `toml:"agent"`
}

// MaxResponseBytes returns MaxResponseSize as a byte count.
func (c *OracleConfig) MaxResponseBytes() int64 {
	n, err := formatting.ParseBytes(c.MaxResponseSize)
	if err != nil {
		return 256 * 1024
	}
	return n
}

// Finalize applies defaults, environment overrides, and validation. The
// agent section is only validated when the agent backend is selected.
func (c *OracleConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if c.Provider == OracleAgent {
		if err := c.Agent.Finalize(); err != nil {
			return fmt.Errorf("agent: %w", err)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *OracleConfig) Merge(overlay *OracleConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Script != "" {
		c.Script = overlay.Script
	}
	if overlay.Prompts != "" {
		c.Prompts = overlay.Prompts
	}
	if overlay.MaxResponseSize != "" {
		c.MaxResponseSize = overlay.MaxResponseSize
	}
	c.Agent.Merge(&overlay.Agent)
}

func (c *OracleConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = OracleAgent
	}
	if c.MaxResponseSize == "" {
		c.MaxResponseSize = "256KB"
	}
}

func (c *OracleConfig) loadEnv() {
	if v := os.Getenv(EnvOracleProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvOracleScript); v != "" {
		c.Script = v
	}
	if v := os.Getenv(EnvOraclePrompts); v != "" {
		c.Prompts = v
	}
	if v := os.Getenv(EnvOracleMaxResponseSize); v != "" {
		c.MaxResponseSize = v
	}
}

func (c *OracleConfig) validate() error {
	if !slices.Contains([]string{OracleAgent, OracleScript}, c.Provider) {
		return fmt.Errorf("invalid provider %q: must be %s or %s", c.Provider, OracleAgent, OracleScript)
	}
	if c.Provider == OracleScript && c.Script == "" {
		return fmt.Errorf("script path required for the %s provider", OracleScript)
	}
	if _, err := formatting.ParseBytes(c.MaxResponseSize); err != nil {
		return fmt.Errorf("invalid max_response_size: %w", err)
	}
	return nil
}
