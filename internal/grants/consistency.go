package grants

import (
	"fmt"

	"github.com/JaimeStill/rounds/internal/clinical"
)

// Stage names used when reporting violations.
const (
	StageEvidenceGrant  = "evidence_grant"
	StageDiagnosisGrant = "diagnosis_grant"
	StageEvidence       = "evidence_auditor"
	StageDiagnosis      = "diagnosis_auditor"
	StageOrchestrator   = "orchestrator"
)

// Violation records a sub-item that was dropped because it exceeded a grant
// or an ownership rule. The rest of the stage output is still applied.
type Violation struct {
	Stage  string `json:"stage"`
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// NewViolation builds a violation for a dropped sub-item.
func NewViolation(stage, item, reason string) Violation {
	return Violation{Stage: stage, Item: item, Reason: reason}
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Stage, v.Item, v.Reason)
}

// CheckConsistency verifies that the orchestrator's action agrees with the
// should_run flags of its own grants.
func CheckConsistency(action clinical.Action, eg EvidenceGrant, dg DiagnosisGrant) error {
	var wantEvidence, wantDiagnosis bool

	switch action {
	case clinical.ActionClarify:
	case clinical.ActionTriggerEvidence:
		wantEvidence = true
	case clinical.ActionTriggerDiagnosis:
		wantDiagnosis = true
	case clinical.ActionTriggerBoth:
		wantEvidence, wantDiagnosis = true, true
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInconsistent, action)
	}

	if eg.ShouldRun != wantEvidence || dg.ShouldRun != wantDiagnosis {
		return fmt.Errorf(
			"%w: %q with evidence.should_run=%t diagnosis.should_run=%t",
			ErrInconsistent, action, eg.ShouldRun, dg.ShouldRun,
		)
	}
	return nil
}
