package turns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/rounds/internal/archive"
	"github.com/JaimeStill/rounds/internal/cases"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/workflow"
)

type controller struct {
	cases   cases.System
	archive archive.System
	runtime *workflow.Runtime
	cfg     Config
	locks   *caseLocks
	logger  *slog.Logger
}

// New creates the pipeline controller. archive may be nil, in which case
// committed turns are not archived.
func New(
	cfg Config,
	store cases.System,
	arch archive.System,
	rt *workflow.Runtime,
	logger *slog.Logger,
) System {
	return &controller{
		cases:   store,
		archive: arch,
		runtime: rt,
		cfg:     cfg,
		locks:   newCaseLocks(),
		logger:  logger.With("system", "turns"),
	}
}

func (c *controller) Start(ctx context.Context, in workflow.Intake) (*Opening, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	id := uuid.New()
	s, out, warnings, err := workflow.RunIntake(ctx, c.runtime, id, in)
	if err != nil {
		return nil, err
	}

	if err := c.cases.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	c.logger.InfoContext(ctx, "case opened",
		"case_id", id,
		"evidence", len(s.Evidence),
		"warnings", len(warnings),
	)

	return &Opening{
		State:    s,
		Intake:   out,
		Warnings: nonNil(warnings),
	}, nil
}

func (c *controller) RunTurn(ctx context.Context, caseID uuid.UUID, message string) *Result {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result := &Result{
		CaseID:   caseID,
		Phase:    workflow.PhaseIdle,
		Warnings: []grants.Violation{},
	}

	release, err := c.locks.acquire(ctx, caseID)
	if err != nil {
		return c.failed(ctx, result, err)
	}
	defer release()

	committed, err := c.cases.Find(ctx, caseID)
	if err != nil {
		return c.failed(ctx, result, err)
	}
	result.State = committed

	ts := workflow.NewTurnState(committed, message)
	err = workflow.Execute(ctx, c.runtime, ts)

	result.Outputs = ts.Outputs
	result.Delta = ts.Delta
	result.Phase = ts.Phase
	result.Warnings = ts.Warnings

	if err != nil {
		return c.failed(ctx, result, err)
	}

	if err := c.cases.Commit(ctx, ts.Working, committed.Version); err != nil {
		return c.failed(ctx, result, err)
	}
	result.State = ts.Working
	result.Outcome = Outcome{Status: StatusCommitted}

	c.record(ctx, ts)

	c.logger.InfoContext(ctx, "turn committed",
		"case_id", caseID,
		"turn", ts.Working.Turn,
		"version", ts.Working.Version,
		"warnings", len(ts.Warnings),
	)

	return result
}

func (c *controller) RunTurns(ctx context.Context, reqs []Request) []*Result {
	results := make([]*Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.Workers, 1))

	for i, req := range reqs {
		g.Go(func() error {
			results[i] = c.RunTurn(gctx, req.CaseID, req.Message)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *controller) failed(ctx context.Context, r *Result, err error) *Result {
	r.Outcome = Outcome{
		Status: StatusFailed,
		Reason: classify(ctx, err),
		Error:  err.Error(),
	}
	r.Phase = workflow.PhaseFailed

	c.logger.WarnContext(ctx, "turn failed",
		"case_id", r.CaseID,
		"phase", r.Phase,
		"reason", r.Outcome.Reason,
		"error", err,
	)
	return r
}

// record archives a committed turn. The turn is already committed, so an
// archive failure is logged and does not change the outcome.
func (c *controller) record(ctx context.Context, ts *workflow.TurnState) {
	if c.archive == nil {
		return
	}
	err := c.archive.Write(ctx, archive.NewRecord(ts))
	if err != nil && !errors.Is(err, archive.ErrExists) {
		c.logger.ErrorContext(ctx, "turn archive failed",
			"case_id", ts.Working.CaseID,
			"turn", ts.Working.Turn,
			"error", err,
		)
	}
}

func (c *controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.TurnTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.TurnTimeout)
	}
	return context.WithCancel(ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
