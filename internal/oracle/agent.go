package oracle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/go-agents/pkg/agent"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Agent serves requests through a go-agents chat agent.
type Agent struct {
	cfg    gaconfig.AgentConfig
	logger *slog.Logger
}

// NewAgent creates an agent-backed oracle. The agent itself is created per
// call so concurrent cases never share a client.
func NewAgent(cfg gaconfig.AgentConfig, logger *slog.Logger) *Agent {
	return &Agent{
		cfg:    cfg,
		logger: logger.With("oracle", "agent"),
	}
}

func (o *Agent) Invoke(ctx context.Context, req Request) (string, error) {
	a, err := agent.New(&o.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrTransient, err)
	}

	resp, err := a.Chat(ctx, req.Text())
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: chat call: %w", ErrTransient, err)
	}

	o.logger.DebugContext(ctx, "oracle responded", "stage", req.Stage)
	return resp.Content(), nil
}
