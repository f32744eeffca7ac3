package grants

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/JaimeStill/rounds/internal/clinical"
)

// DiagnosisGrant authorizes one diagnosis auditor run.
type DiagnosisGrant struct {
	ShouldRun      bool              `json:"should_run"`
	Reasons        []DiagnosisReason `json:"reasons"`
	FocusIDs       []string          `json:"focus_diagnosis_ids"`
	AllowedActions []DiagnosisAction `json:"allowed_actions"`
	UpdateIDs      []string          `json:"to_be_updated_ai_diagnosis_ids"`
	RetireIDs      []string          `json:"to_be_redundant_ai_diagnosis_ids"`
	Objective      string            `json:"objective"`
}

var diagnosisFields = []string{
	"should_run",
	"reasons",
	"focus_diagnosis_ids",
	"allowed_actions",
	"to_be_updated_ai_diagnosis_ids",
	"to_be_redundant_ai_diagnosis_ids",
	"objective",
}

// UnmarshalJSON rejects a grant that omits any field.
func (g *DiagnosisGrant) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, diagnosisFields...); err != nil {
		return fmt.Errorf("diagnosis grant: %w", err)
	}
	type plain DiagnosisGrant
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("diagnosis grant: %w", err)
	}
	*g = DiagnosisGrant(p)
	return nil
}

// Validate checks the structural rules a grant must satisfy before use.
func (g *DiagnosisGrant) Validate() error {
	if g.Reasons == nil {
		return fmt.Errorf("diagnosis grant: %w: reasons", ErrMissingField)
	}
	if g.AllowedActions == nil {
		return fmt.Errorf("diagnosis grant: %w: allowed_actions", ErrMissingField)
	}
	if !g.ShouldRun {
		return nil
	}
	if len(g.AllowedActions) == 0 {
		return fmt.Errorf("diagnosis grant: %w", ErrNoActions)
	}
	if g.Objective == "" {
		return fmt.Errorf("diagnosis grant: %w", ErrMissingObjective)
	}
	return nil
}

// Allows reports whether the grant permits action.
func (g *DiagnosisGrant) Allows(action DiagnosisAction) bool {
	return g.ShouldRun && slices.Contains(g.AllowedActions, action)
}

// CanUpdate reports whether the grant permits updating the diagnosis id.
func (g *DiagnosisGrant) CanUpdate(id string) bool {
	return g.Allows(UpdateAIDiagnosis) && slices.Contains(g.UpdateIDs, id)
}

// CanRetire reports whether the grant permits retiring the diagnosis id.
func (g *DiagnosisGrant) CanRetire(id string) bool {
	return g.Allows(MarkAIDiagnosisRedundant) && slices.Contains(g.RetireIDs, id)
}

// Scope strips update and retire ids that do not name an active AI-owned
// diagnosis, and focus ids that name no diagnosis at all. A Doctor diagnosis
// can be in focus but never in the update or retire scope.
func (g *DiagnosisGrant) Scope(s *clinical.State) []Violation {
	var violations []Violation

	owned := func(field string) func(string) bool {
		return func(id string) bool {
			d, ok := s.FindDiagnosis(id)
			switch {
			case !ok:
				violations = append(violations, NewViolation(StageDiagnosisGrant, id, field+": unknown diagnosis"))
			case d.Creator != clinical.CreatorAI:
				violations = append(violations, NewViolation(StageDiagnosisGrant, id, field+": diagnosis is not AI-owned"))
			case !d.Active():
				violations = append(violations, NewViolation(StageDiagnosisGrant, id, field+": diagnosis already redundant"))
			default:
				return true
			}
			return false
		}
	}

	known := func(id string) bool {
		if _, ok := s.FindDiagnosis(id); ok {
			return true
		}
		violations = append(violations, NewViolation(StageDiagnosisGrant, id, "focus: unknown diagnosis"))
		return false
	}

	g.FocusIDs = retain(g.FocusIDs, known)
	g.UpdateIDs = retain(g.UpdateIDs, owned("update"))
	g.RetireIDs = retain(g.RetireIDs, owned("retire"))
	return violations
}
