package turns

import (
	"context"
	"errors"

	"github.com/JaimeStill/rounds/internal/cases"
	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/oracle"
)

// ErrEditRejected is returned when a Doctor edit cannot be applied.
var ErrEditRejected = errors.New("edit rejected")

// classify maps a turn error to its reason tag. Cancellation is judged by
// ctx rather than the error chain: a stage timeout wraps DeadlineExceeded
// but is an oracle failure.
func classify(ctx context.Context, err error) Reason {
	switch {
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return ReasonCancelled
	case errors.Is(err, cases.ErrNotFound):
		return ReasonCaseNotFound
	case errors.Is(err, cases.ErrConflict):
		return ReasonConflict
	case errors.Is(err, clinical.ErrContractViolation):
		return ReasonContractViolation
	case errors.Is(err, oracle.ErrSchemaViolation):
		return ReasonSchemaViolation
	case oracle.IsTransient(err):
		return ReasonOracleUnavailable
	default:
		return ReasonInternal
	}
}
