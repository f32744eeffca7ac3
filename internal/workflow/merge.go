package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/rounds/internal/clinical"
)

// MergeNode returns a state node that closes the turn. It advances the turn
// counter, records the exchange in the transcript, verifies the working
// state against the committed one, and refreshes the delta baseline. The
// committed state is left untouched; the caller decides whether to persist.
func MergeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ts, err := extractTurnState(s)
		if err != nil {
			return s, fmt.Errorf("merge: %w", err)
		}

		if err := ctx.Err(); err != nil {
			return s, ts.fail(fmt.Errorf("%w: %w", ErrMergeFailed, err))
		}

		w := ts.Working
		w.Turn++
		w.Trigger = clinical.TriggerUI

		if msg := strings.TrimSpace(ts.Message); msg != "" {
			w.Transcript = append(w.Transcript, clinical.Message{Turn: w.Turn, Role: clinical.RoleDoctor, Content: msg})
		}
		if w.Strategy != nil && w.Strategy.NextQuestion != nil {
			w.Transcript = append(w.Transcript, clinical.Message{Turn: w.Turn, Role: clinical.RoleAI, Content: *w.Strategy.NextQuestion})
		}

		if err := clinical.VerifyTransition(ts.Committed, w); err != nil {
			return s, ts.fail(fmt.Errorf("%w: %w", ErrMergeFailed, err))
		}

		w.Commit()
		ts.Phase = PhaseMerged

		rt.Logger.InfoContext(
			ctx, "merge node complete",
			"turn", w.Turn,
			"active_evidence", len(w.ActiveEvidence()),
			"active_diagnoses", len(w.ActiveDiagnoses()),
			"warnings", len(ts.Warnings),
		)

		return s, nil
	})
}
