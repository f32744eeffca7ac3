package workflow

import (
	"log/slog"
	"time"

	"github.com/JaimeStill/rounds/internal/oracle"
	"github.com/JaimeStill/rounds/internal/prompts"
)

// RetryPolicy bounds the oracle calls of one stage.
type RetryPolicy struct {
	MaxAttempts      int
	StageTimeout     time.Duration
	MaxResponseBytes int64
}

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code from configuration.
type Runtime struct {
	Oracle  oracle.Oracle
	Prompts prompts.System
	Retry   RetryPolicy
	Logger  *slog.Logger
}
