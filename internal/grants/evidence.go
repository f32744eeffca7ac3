package grants

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/JaimeStill/rounds/internal/clinical"
)

// EvidenceGrant authorizes one evidence auditor run. Both list fields are
// required in the payload, but an empty TargetClinicalTypes or
// ImplicitSources widens scope to every type or source rather than denying
// all of them.
type EvidenceGrant struct {
	ShouldRun           bool                    `json:"should_run"`
	Reasons             []EvidenceReason        `json:"reasons"`
	TargetClinicalTypes []clinical.ClinicalType `json:"target_clinical_types"`
	ImplicitSources     []ImplicitSource        `json:"implicit_sources"`
	AllowedActions      []EvidenceAction        `json:"allowed_actions"`
	UpdateIDs           []string                `json:"to_be_updated_evidence_ids"`
	RetireIDs           []string                `json:"to_be_redundant_evidence_ids"`
	Objective           string                  `json:"objective"`
}

var evidenceFields = []string{
	"should_run",
	"reasons",
	"target_clinical_types",
	"implicit_sources",
	"allowed_actions",
	"to_be_updated_evidence_ids",
	"to_be_redundant_evidence_ids",
	"objective",
}

// UnmarshalJSON rejects a grant that omits any field. Absent lists are not
// read as "nothing allowed".
func (g *EvidenceGrant) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, evidenceFields...); err != nil {
		return fmt.Errorf("evidence grant: %w", err)
	}
	type plain EvidenceGrant
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("evidence grant: %w", err)
	}
	*g = EvidenceGrant(p)
	return nil
}

// Validate checks the structural rules a grant must satisfy before use.
func (g *EvidenceGrant) Validate() error {
	if g.Reasons == nil {
		return fmt.Errorf("evidence grant: %w: reasons", ErrMissingField)
	}
	if g.AllowedActions == nil {
		return fmt.Errorf("evidence grant: %w: allowed_actions", ErrMissingField)
	}
	if !g.ShouldRun {
		return nil
	}
	if len(g.AllowedActions) == 0 {
		return fmt.Errorf("evidence grant: %w", ErrNoActions)
	}
	if g.Objective == "" {
		return fmt.Errorf("evidence grant: %w", ErrMissingObjective)
	}
	return nil
}

// Allows reports whether the grant permits action.
func (g *EvidenceGrant) Allows(action EvidenceAction) bool {
	return g.ShouldRun && slices.Contains(g.AllowedActions, action)
}

// CanUpdate reports whether the grant permits updating the evidence entry id.
func (g *EvidenceGrant) CanUpdate(id string) bool {
	return g.Allows(UpdateAIEvidence) && slices.Contains(g.UpdateIDs, id)
}

// CanRetire reports whether the grant permits retiring the evidence entry id.
func (g *EvidenceGrant) CanRetire(id string) bool {
	return g.Allows(MarkAIEvidenceRedundant) && slices.Contains(g.RetireIDs, id)
}

// Targets reports whether evidence of type t is in scope. An empty target
// list places every classification in scope.
func (g *EvidenceGrant) Targets(t clinical.ClinicalType) bool {
	return len(g.TargetClinicalTypes) == 0 || slices.Contains(g.TargetClinicalTypes, t)
}

// Sources reports whether implicit evidence may be drawn from src. An empty
// source list grants every source.
func (g *EvidenceGrant) Sources(src ImplicitSource) bool {
	return len(g.ImplicitSources) == 0 || slices.Contains(g.ImplicitSources, src)
}

// Scope strips update and retire ids that do not name an active AI-owned
// evidence entry in s. Each stripped id is reported as a violation.
func (g *EvidenceGrant) Scope(s *clinical.State) []Violation {
	var violations []Violation

	keep := func(field string) func(string) bool {
		return func(id string) bool {
			e, ok := s.FindEvidence(id)
			switch {
			case !ok:
				violations = append(violations, NewViolation(StageEvidenceGrant, id, field+": unknown evidence"))
			case e.Creator != clinical.CreatorAI:
				violations = append(violations, NewViolation(StageEvidenceGrant, id, field+": evidence is not AI-owned"))
			case !e.Active():
				violations = append(violations, NewViolation(StageEvidenceGrant, id, field+": evidence already redundant"))
			default:
				return true
			}
			return false
		}
	}

	g.UpdateIDs = retain(g.UpdateIDs, keep("update"))
	g.RetireIDs = retain(g.RetireIDs, keep("retire"))
	return violations
}

func retain(ids []string, keep func(string) bool) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if slices.Contains(out, id) {
			continue
		}
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
