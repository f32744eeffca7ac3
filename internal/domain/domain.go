// Package domain assembles the rounds domain systems from configuration and
// infrastructure: the case store, the turn archive, the reasoning oracle,
// and the pipeline controller.
package domain

import (
	"fmt"

	"github.com/JaimeStill/rounds/internal/archive"
	"github.com/JaimeStill/rounds/internal/cases"
	"github.com/JaimeStill/rounds/internal/config"
	"github.com/JaimeStill/rounds/internal/infrastructure"
	"github.com/JaimeStill/rounds/internal/oracle"
	"github.com/JaimeStill/rounds/internal/prompts"
	"github.com/JaimeStill/rounds/internal/turns"
	"github.com/JaimeStill/rounds/internal/workflow"
)

// Domain holds all domain systems of the engine.
type Domain struct {
	Cases   cases.System
	Archive archive.System
	Prompts prompts.System
	Turns   turns.System
}

// New creates all domain systems. The oracle backend is built from cfg
// unless o is non-nil, in which case o is injected as is.
func New(cfg *config.Config, infra *infrastructure.Infrastructure, o oracle.Oracle) (*Domain, error) {
	logger := infra.Logger.With("module", "domain")

	var store cases.System
	if infra.Database != nil {
		store = cases.New(infra.Database.Connection(), logger, cfg.Pagination)
	} else {
		store = cases.NewMemory(logger, cfg.Pagination)
	}

	var arch archive.System
	if infra.Storage != nil {
		arch = archive.New(infra.Storage, logger)
	}

	ps, err := prompts.LoadDir(cfg.Oracle.Prompts)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	if o == nil {
		o, err = oracle.New(&cfg.Oracle, logger)
		if err != nil {
			return nil, fmt.Errorf("create oracle: %w", err)
		}
	}

	rt := &workflow.Runtime{
		Oracle:  o,
		Prompts: ps,
		Retry: workflow.RetryPolicy{
			MaxAttempts:      cfg.Pipeline.MaxAttempts,
			StageTimeout:     cfg.Pipeline.StageTimeoutDuration(),
			MaxResponseBytes: cfg.Oracle.MaxResponseBytes(),
		},
		Logger: logger.With("system", "workflow"),
	}

	turnsSystem := turns.New(
		turns.Config{
			TurnTimeout: cfg.Pipeline.TurnTimeoutDuration(),
			Workers:     cfg.Pipeline.Workers,
		},
		store,
		arch,
		rt,
		logger,
	)

	return &Domain{
		Cases:   store,
		Archive: arch,
		Prompts: ps,
		Turns:   turnsSystem,
	}, nil
}
