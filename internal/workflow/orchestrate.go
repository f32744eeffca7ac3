package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/prompts"
)

// OrchestrateNode returns a state node that asks the oracle for the turn's
// reasoning step, strategy, and auditor grants. A response whose action
// disagrees with its grants is a schema violation and is retried. Grant ids
// that do not name an active AI-owned entry are stripped with a warning.
func OrchestrateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ts, err := extractTurnState(s)
		if err != nil {
			return s, fmt.Errorf("orchestrate: %w", err)
		}

		ts.Phase = PhaseOrchestrating

		out, err := invoke(ctx, rt, prompts.StageOrchestrate, newOrchestratorView(ts), validateOrchestrator(ts.Working))
		if err != nil {
			return s, ts.fail(fmt.Errorf("%w: %w", ErrOrchestrateFailed, err))
		}

		ts.warn(out.EvidenceGrant.Scope(ts.Working)...)
		ts.warn(out.DiagnosisGrant.Scope(ts.Working)...)

		applyOrchestrator(ts.Working, &out)
		ts.Outputs.Orchestrator = &out
		ts.Phase = PhaseAuditing

		rt.Logger.InfoContext(
			ctx, "orchestrate node complete",
			"action", out.ReasoningStep.ActionTaken,
			"differential_status", out.Strategy.DifferentialStatus,
			"evidence_auditor", out.EvidenceGrant.ShouldRun,
			"diagnosis_auditor", out.DiagnosisGrant.ShouldRun,
		)

		return s, nil
	})
}

func validateOrchestrator(w *clinical.State) func(*OrchestratorOutput) error {
	return func(out *OrchestratorOutput) error {
		step := out.ReasoningStep
		if strings.TrimSpace(step.Thought) == "" {
			return ErrMissingThought
		}
		if !out.Strategy.DifferentialStatus.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidStrategy, out.Strategy.DifferentialStatus)
		}
		if err := out.EvidenceGrant.Validate(); err != nil {
			return err
		}
		if err := out.DiagnosisGrant.Validate(); err != nil {
			return err
		}
		if err := grants.CheckConsistency(step.ActionTaken, out.EvidenceGrant, out.DiagnosisGrant); err != nil {
			return err
		}
		if step.ActionTaken == clinical.ActionClarify && len(w.ActiveEvidence()) > 0 {
			q := out.Strategy.NextQuestion
			if q == nil || strings.TrimSpace(*q) == "" {
				return ErrClarifyWithoutQuestion
			}
		}
		return nil
	}
}

func applyOrchestrator(w *clinical.State, out *OrchestratorOutput) {
	w.ReasoningChain = append(w.ReasoningChain, clinical.ReasoningStep{
		Turn:        w.Turn + 1,
		Thought:     strings.TrimSpace(out.ReasoningStep.Thought),
		ActionTaken: out.ReasoningStep.ActionTaken,
	})

	strategy := out.Strategy
	if strategy.NextQuestion != nil && strings.TrimSpace(*strategy.NextQuestion) == "" {
		strategy.NextQuestion = nil
	}
	w.Strategy = &strategy

	if summary := strings.TrimSpace(out.Summary); summary != "" {
		w.Summary = summary
	}

	w.Advisories = clinical.Advisories{}
}

func extractTurnState(s state.State) (*TurnState, error) {
	val, ok := s.Get(KeyTurnState)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMissingTurnState, KeyTurnState)
	}

	ts, ok := val.(*TurnState)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not *TurnState", ErrMissingTurnState, KeyTurnState)
	}

	return ts, nil
}
