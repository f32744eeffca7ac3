package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineMaxAttempts  = "ROUNDS_PIPELINE_MAX_ATTEMPTS"
	EnvPipelineStageTimeout = "ROUNDS_PIPELINE_STAGE_TIMEOUT"
	EnvPipelineTurnTimeout  = "ROUNDS_PIPELINE_TURN_TIMEOUT"
	EnvPipelineWorkers      = "ROUNDS_PIPELINE_WORKERS"
)

// PipelineConfig bounds oracle retries, stage and turn deadlines, and the
// number of cases advanced concurrently.
type PipelineConfig struct {
	MaxAttempts  int    `toml:"max_attempts"`
	StageTimeout string `toml:"stage_timeout"`
	TurnTimeout  string `toml:"turn_timeout"`
	Workers      int    `toml:"workers"`
}

// StageTimeoutDuration returns StageTimeout as a time.Duration.
func (c *PipelineConfig) StageTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.StageTimeout)
	return d
}

// TurnTimeoutDuration returns TurnTimeout as a time.Duration.
func (c *PipelineConfig) TurnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.TurnTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.StageTimeout != "" {
		c.StageTimeout = overlay.StageTimeout
	}
	if overlay.TurnTimeout != "" {
		c.TurnTimeout = overlay.TurnTimeout
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 2
	}
	if c.StageTimeout == "" {
		c.StageTimeout = "90s"
	}
	if c.TurnTimeout == "" {
		c.TurnTimeout = "10m"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := os.Getenv(EnvPipelineStageTimeout); v != "" {
		c.StageTimeout = v
	}
	if v := os.Getenv(EnvPipelineTurnTimeout); v != "" {
		c.TurnTimeout = v
	}
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	stage, err := time.ParseDuration(c.StageTimeout)
	if err != nil {
		return fmt.Errorf("invalid stage_timeout: %w", err)
	}
	turn, err := time.ParseDuration(c.TurnTimeout)
	if err != nil {
		return fmt.Errorf("invalid turn_timeout: %w", err)
	}
	if stage <= 0 || turn <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}
