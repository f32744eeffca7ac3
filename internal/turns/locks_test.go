package turns

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/cases"
	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/oracle"
	"github.com/JaimeStill/rounds/internal/workflow"
)

func TestCaseLocks(t *testing.T) {
	locks := newCaseLocks()
	id := uuid.New()

	release, err := locks.acquire(context.Background(), id)
	if err != nil {
		t.Fatalf("acquire error: %v", err)
	}

	other, err := locks.acquire(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("acquire(other case) error: %v", err)
	}
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.acquire(ctx, id); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("acquire(held) error = %v, want DeadlineExceeded", err)
	}

	release()

	again, err := locks.acquire(context.Background(), id)
	if err != nil {
		t.Fatalf("acquire after release error: %v", err)
	}
	again()

	if n := locks.len(); n != 0 {
		t.Errorf("locks retained %d entries after release", n)
	}
}

func TestClassify(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	live := context.Background()

	stageTimeout := fmt.Errorf("%w: stage timeout: %w", oracle.ErrTransient, context.DeadlineExceeded)

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want Reason
	}{
		{"cancelled", cancelled, errors.New("boom"), ReasonCancelled},
		{"not found", live, fmt.Errorf("find: %w", cases.ErrNotFound), ReasonCaseNotFound},
		{"conflict", live, cases.ErrConflict, ReasonConflict},
		{"contract", live, fmt.Errorf("%w: %w", workflow.ErrMergeFailed, clinical.ErrContractViolation), ReasonContractViolation},
		{"schema", live, fmt.Errorf("%w: %w", workflow.ErrRetriesExhausted, oracle.ErrSchemaViolation), ReasonSchemaViolation},
		{"transient", live, fmt.Errorf("%w: %w", workflow.ErrRetriesExhausted, oracle.ErrTransient), ReasonOracleUnavailable},
		{"stage timeout", live, stageTimeout, ReasonOracleUnavailable},
		{"other", live, errors.New("boom"), ReasonInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.ctx, tt.err); got != tt.want {
				t.Errorf("classify = %s, want %s", got, tt.want)
			}
		})
	}
}
