package workflow_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/oracle"
	"github.com/JaimeStill/rounds/internal/prompts"
	"github.com/JaimeStill/rounds/internal/workflow"
)

func newRuntime(t *testing.T, script *oracle.Script) *workflow.Runtime {
	t.Helper()

	ps, err := prompts.New(nil)
	if err != nil {
		t.Fatalf("prompts.New: %v", err)
	}

	return &workflow.Runtime{
		Oracle:  script,
		Prompts: ps,
		Retry: workflow.RetryPolicy{
			MaxAttempts:      2,
			StageTimeout:     200 * time.Millisecond,
			MaxResponseBytes: 64 * 1024,
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newState(t *testing.T) *clinical.State {
	t.Helper()
	return clinical.New(uuid.New(), clinical.Patient{Name: "Jane Roe", Age: 42, Gender: "Female"}, "Two days of fever.")
}

func content(t *testing.T, v any) oracle.Step {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal step: %v", err)
	}
	return oracle.Step{Content: string(data)}
}

func idleEvidenceGrant() grants.EvidenceGrant {
	return grants.EvidenceGrant{
		Reasons:             []grants.EvidenceReason{},
		TargetClinicalTypes: []clinical.ClinicalType{},
		ImplicitSources:     []grants.ImplicitSource{},
		AllowedActions:      []grants.EvidenceAction{},
		UpdateIDs:           []string{},
		RetireIDs:           []string{},
	}
}

func evidenceGrant(actions ...grants.EvidenceAction) grants.EvidenceGrant {
	g := idleEvidenceGrant()
	g.ShouldRun = true
	g.Reasons = []grants.EvidenceReason{grants.ReasonImplicitExtraction}
	g.AllowedActions = actions
	g.Objective = "Extract implicit findings from the doctor's message"
	return g
}

func idleDiagnosisGrant() grants.DiagnosisGrant {
	return grants.DiagnosisGrant{
		Reasons:        []grants.DiagnosisReason{},
		FocusIDs:       []string{},
		AllowedActions: []grants.DiagnosisAction{},
		UpdateIDs:      []string{},
		RetireIDs:      []string{},
	}
}

func diagnosisGrant(actions ...grants.DiagnosisAction) grants.DiagnosisGrant {
	g := idleDiagnosisGrant()
	g.ShouldRun = true
	g.Reasons = []grants.DiagnosisReason{grants.ReasonEvidenceDriven}
	g.AllowedActions = actions
	g.Objective = "Revise the differential"
	return g
}

func orchestration(action clinical.Action, eg grants.EvidenceGrant, dg grants.DiagnosisGrant, question string) workflow.OrchestratorOutput {
	out := workflow.OrchestratorOutput{
		ReasoningStep: workflow.StepOutput{
			Thought:     "New findings were reported",
			ActionTaken: action,
		},
		Strategy: clinical.DiagnosticStrategy{
			DifferentialStatus: clinical.StatusExpanding,
			Summary:            "Febrile illness under evaluation",
		},
		Summary:        "Patient presents with fever.",
		EvidenceGrant:  eg,
		DiagnosisGrant: dg,
		Rationale:      "Findings changed",
	}
	if question != "" {
		out.Strategy.NextQuestion = &question
	}
	return out
}

func stage(s prompts.Stage) string {
	return string(s)
}
