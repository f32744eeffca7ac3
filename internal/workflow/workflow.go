package workflow

import (
	"context"
	"fmt"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// Execute runs one turn over ts. It builds the turn graph
// (orchestrate → evidence? → diagnosis? → merge), executes it, and leaves
// the outcome on ts. ts.Committed is never modified; on success ts.Working
// holds the merged state and ts.Phase is PhaseMerged.
func Execute(ctx context.Context, rt *Runtime, ts *TurnState) error {
	graph, err := buildGraph(rt)
	if err != nil {
		return ts.fail(fmt.Errorf("build graph: %w", err))
	}

	initialState := state.New(nil)
	initialState = initialState.Set(KeyTurnState, ts)

	if _, err := graph.Execute(ctx, initialState); err != nil {
		if ts.err != nil {
			return ts.err
		}
		if ctx.Err() != nil {
			return ts.fail(ctx.Err())
		}
		return ts.fail(fmt.Errorf("execute graph: %w", err))
	}

	if ts.Phase != PhaseMerged {
		return ts.fail(fmt.Errorf("%w: turn ended in phase %s", ErrMergeFailed, ts.Phase))
	}

	return nil
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("rounds-turn")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("orchestrate", OrchestrateNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("evidence", EvidenceNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("diagnosis", DiagnosisNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("merge", MergeNode(rt)); err != nil {
		return nil, err
	}

	// orchestrate → evidence (evidence grant runs)
	if err := graph.AddEdge("orchestrate", "evidence", runsEvidence); err != nil {
		return nil, err
	}

	// orchestrate → diagnosis (only the diagnosis grant runs)
	if err := graph.AddEdge("orchestrate", "diagnosis", diagnosisOnly); err != nil {
		return nil, err
	}

	// orchestrate → merge (clarification, no auditor runs)
	if err := graph.AddEdge("orchestrate", "merge", noAuditors); err != nil {
		return nil, err
	}

	// evidence → diagnosis (both grants run)
	if err := graph.AddEdge("evidence", "diagnosis", runsDiagnosis); err != nil {
		return nil, err
	}

	// evidence → merge (evidence only)
	if err := graph.AddEdge("evidence", "merge", state.Not(runsDiagnosis)); err != nil {
		return nil, err
	}

	// diagnosis → merge (unconditional)
	if err := graph.AddEdge("diagnosis", "merge", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("orchestrate"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("merge"); err != nil {
		return nil, err
	}

	return graph, nil
}

func turnState(s state.State) *TurnState {
	ts, err := extractTurnState(s)
	if err != nil {
		return nil
	}
	return ts
}

func runsEvidence(s state.State) bool {
	ts := turnState(s)
	return ts != nil && ts.RunsEvidence()
}

func runsDiagnosis(s state.State) bool {
	ts := turnState(s)
	return ts != nil && ts.RunsDiagnosis()
}

func diagnosisOnly(s state.State) bool {
	ts := turnState(s)
	return ts != nil && !ts.RunsEvidence() && ts.RunsDiagnosis()
}

func noAuditors(s state.State) bool {
	ts := turnState(s)
	return ts != nil && !ts.RunsEvidence() && !ts.RunsDiagnosis()
}
