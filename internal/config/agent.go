package config

import (
	"fmt"
	"maps"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "ROUNDS_AGENT_NAME"
	EnvAgentProviderName = "ROUNDS_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "ROUNDS_AGENT_BASE_URL"
	EnvAgentToken        = "ROUNDS_AGENT_TOKEN"
	EnvAgentDeployment   = "ROUNDS_AGENT_DEPLOYMENT"
	EnvAgentAPIVersion   = "ROUNDS_AGENT_API_VERSION"
	EnvAgentAuthType     = "ROUNDS_AGENT_AUTH_TYPE"
	EnvAgentModelName    = "ROUNDS_AGENT_MODEL_NAME"
)

// AgentConfig describes the language model behind the agent oracle.
type AgentConfig struct {
	Name     string         `toml:"name"`
	Provider string         `toml:"provider"`
	BaseURL  string         `toml:"base_url"`
	Model    string         `toml:"model"`
	Options  map[string]any `toml:"options"`
}

// Merge overwrites non-zero fields from overlay. Options are merged key by key.
func (c *AgentConfig) Merge(overlay *AgentConfig) {
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if len(overlay.Options) > 0 {
		if c.Options == nil {
			c.Options = make(map[string]any, len(overlay.Options))
		}
		maps.Copy(c.Options, overlay.Options)
	}
}

// Finalize applies environment overrides and validation.
func (c *AgentConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// AgentConfig builds the go-agents configuration, layered over the go-agents
// defaults so unset model and transport options keep their library values.
func (c *AgentConfig) AgentConfig() gaconfig.AgentConfig {
	cfg := gaconfig.AgentConfig{
		Name: c.Name,
		Provider: &gaconfig.ProviderConfig{
			Name:    c.Provider,
			BaseURL: c.BaseURL,
			Options: maps.Clone(c.Options),
		},
		Model: &gaconfig.ModelConfig{
			Name: c.Model,
		},
	}

	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(&cfg)
	return defaults
}

func (c *AgentConfig) loadDefaults() {
	if c.Name == "" {
		c.Name = "rounds"
	}
	if c.Options == nil {
		c.Options = make(map[string]any)
	}
}

func (c *AgentConfig) loadEnv() {
	if v := os.Getenv(EnvAgentName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvAgentProviderName); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvAgentBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAgentModelName); v != "" {
		c.Model = v
	}

	setOption := func(envVar, key string) {
		if v := os.Getenv(envVar); v != "" {
			c.Options[key] = v
		}
	}

	setOption(EnvAgentToken, "token")
	setOption(EnvAgentDeployment, "deployment")
	setOption(EnvAgentAPIVersion, "api_version")
	setOption(EnvAgentAuthType, "auth_type")
}

func (c *AgentConfig) validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider name required")
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	return nil
}
