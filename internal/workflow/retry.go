package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/rounds/internal/oracle"
	"github.com/JaimeStill/rounds/internal/prompts"
	"github.com/JaimeStill/rounds/pkg/formatting"
)

// invoke calls the oracle for one stage and decodes the response into T.
// Transient failures and schema violations consume one attempt each; any
// other error, and cancellation of ctx, ends the stage immediately.
func invoke[T any](
	ctx context.Context,
	rt *Runtime,
	stage prompts.Stage,
	view any,
	validate func(*T) error,
) (T, error) {
	var zero T

	req, err := ComposePrompt(rt.Prompts, stage, view)
	if err != nil {
		return zero, err
	}

	attempts := max(rt.Retry.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := attemptStage(ctx, rt, req, validate)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !oracle.IsTransient(err) && !errors.Is(err, oracle.ErrSchemaViolation) {
			return zero, err
		}

		lastErr = err
		rt.Logger.WarnContext(
			ctx, "stage attempt failed",
			"stage", stage,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
	}

	return zero, fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, stage, attempts, lastErr)
}

func attemptStage[T any](
	ctx context.Context,
	rt *Runtime,
	req oracle.Request,
	validate func(*T) error,
) (T, error) {
	var zero T

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if rt.Retry.StageTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, rt.Retry.StageTimeout)
	}
	defer cancel()

	content, err := rt.Oracle.Invoke(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, fmt.Errorf("%w: stage timeout after %s: %w", oracle.ErrTransient, rt.Retry.StageTimeout, err)
		}
		return zero, err
	}

	if limit := rt.Retry.MaxResponseBytes; limit > 0 && int64(len(content)) > limit {
		return zero, fmt.Errorf(
			"%w: response of %s exceeds %s",
			oracle.ErrSchemaViolation,
			formatting.FormatBytes(int64(len(content))),
			formatting.FormatBytes(limit),
		)
	}

	out, err := formatting.Parse[T](content)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", oracle.ErrSchemaViolation, err)
	}

	if validate != nil {
		if err := validate(&out); err != nil {
			return zero, fmt.Errorf("%w: %w", oracle.ErrSchemaViolation, err)
		}
	}

	return out, nil
}
