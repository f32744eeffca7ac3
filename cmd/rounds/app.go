package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/rounds/internal/config"
	"github.com/JaimeStill/rounds/internal/domain"
	"github.com/JaimeStill/rounds/internal/infrastructure"
)

// app is the assembled engine for one command invocation.
type app struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	domain *domain.Domain
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadFile(rootFlags.config)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if err := infra.Start(cmd.Context()); err != nil {
		_ = infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
		return nil, err
	}

	d, err := domain.New(cfg, infra, nil)
	if err != nil {
		_ = infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
		return nil, err
	}

	if !cfg.UsesDatabase() {
		infra.Logger.Warn("cases are held in memory and discarded on exit")
	}

	return &app{cfg: cfg, infra: infra, domain: d}, nil
}

func (a *app) close() {
	if err := a.infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration()); err != nil {
		a.infra.Logger.Error("shutdown failed", "error", err)
	}
}

func parseCaseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid case id %q: %w", arg, err)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
