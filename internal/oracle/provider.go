package oracle

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/rounds/internal/config"
)

// New builds the oracle backend selected by cfg. The backend is chosen once
// at construction and injected into the pipeline.
func New(cfg *config.OracleConfig, logger *slog.Logger) (Oracle, error) {
	switch cfg.Provider {
	case config.OracleAgent:
		return NewAgent(cfg.Agent.AgentConfig(), logger), nil
	case config.OracleScript:
		script, err := LoadScript(cfg.Script)
		if err != nil {
			return nil, err
		}
		logger.Info("using scripted oracle", "script", cfg.Script)
		return script, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
