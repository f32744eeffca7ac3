package workflow

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/prompts"
)

// DiagnosisNode returns a state node that runs the diagnosis auditor under
// the orchestrator's diagnosis grant. The auditor sees evidence merged
// earlier in the same turn.
func DiagnosisNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ts, err := extractTurnState(s)
		if err != nil {
			return s, fmt.Errorf("diagnosis: %w", err)
		}

		grant := ts.Outputs.Orchestrator.DiagnosisGrant

		out, err := invoke[DiagnosisAuditOutput](ctx, rt, prompts.StageDiagnosis, newDiagnosisView(ts, grant), nil)
		if err != nil {
			return s, ts.fail(fmt.Errorf("%w: %w", ErrDiagnosisFailed, err))
		}

		violations := ApplyDiagnosis(ts.Working, &grant, &out)
		ts.warn(violations...)
		ts.Outputs.Diagnosis = &out

		rt.Logger.InfoContext(
			ctx, "diagnosis node complete",
			"active_diagnoses", len(ts.Working.ActiveDiagnoses()),
			"dropped", len(violations),
		)

		return s, nil
	})
}

// ApplyDiagnosis folds a diagnosis auditor output into w under grant g and
// returns a violation for every item it dropped. Doctor diagnoses keep their
// name and reasoning and are never retired here; only their evidence links
// and metrics may change. Metrics are always recomputed by the scoring
// policy and never copied from the output.
func ApplyDiagnosis(w *clinical.State, g *grants.DiagnosisGrant, out *DiagnosisAuditOutput) []grants.Violation {
	var violations []grants.Violation
	drop := func(item, reason string) {
		violations = append(violations, grants.NewViolation(grants.StageDiagnosis, item, reason))
	}

	touched := make(map[string]struct{})
	knownEvidence := func(item string, ids []string) []string {
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := w.FindEvidence(id); !ok {
				drop(item, fmt.Sprintf("unknown evidence %s", id))
				continue
			}
			if !slices.Contains(kept, id) {
				kept = append(kept, id)
			}
		}
		return kept
	}

	for _, p := range out.NewDiagnoses {
		name := strings.TrimSpace(p.Name)
		switch {
		case !g.Allows(grants.CreateAIDiagnosis):
			drop(itemLabel(p.Name), "CreateAIDiagnosis not granted")
			continue
		case name == "":
			drop(itemLabel(p.Name), "empty name")
			continue
		case w.HasActiveDiagnosisNamed(name):
			drop(name, "duplicates active diagnosis")
			continue
		}

		d := clinical.Diagnosis{
			ID:                     clinical.NewDiagnosisID(),
			Name:                   name,
			Creator:                clinical.CreatorAI,
			Reasoning:              strings.TrimSpace(p.Reasoning),
			SupportingEvidenceIDs:  knownEvidence(name, p.SupportingEvidenceIDs),
			ConflictingEvidenceIDs: knownEvidence(name, p.ConflictingEvidenceIDs),
			Relevance:              clinical.RelevanceActive,
		}
		w.Diagnoses = append(w.Diagnoses, d)
		touched[d.ID] = struct{}{}
	}

	for _, r := range out.UpdatedDiagnoses {
		d, ok := w.FindDiagnosis(r.ID)
		switch {
		case !ok:
			drop(r.ID, "unknown diagnosis")
			continue
		case d.Creator == clinical.CreatorDoctor:
			drop(r.ID, "doctor diagnosis is immutable")
			continue
		case !g.CanUpdate(r.ID):
			drop(r.ID, "update not in grant scope")
			continue
		case !d.Active():
			drop(r.ID, "diagnosis is redundant")
			continue
		}

		if name := strings.TrimSpace(r.Name); name != "" {
			if w.DiagnosisNameTaken(name, r.ID) {
				drop(r.ID, fmt.Sprintf("rename to %q duplicates active diagnosis", name))
			} else {
				d.Name = name
			}
		}
		if reasoning := strings.TrimSpace(r.Reasoning); reasoning != "" {
			d.Reasoning = reasoning
		}
		if r.SupportingEvidenceIDs != nil {
			d.SupportingEvidenceIDs = knownEvidence(r.ID, r.SupportingEvidenceIDs)
		}
		if r.ConflictingEvidenceIDs != nil {
			d.ConflictingEvidenceIDs = knownEvidence(r.ID, r.ConflictingEvidenceIDs)
		}
		touched[r.ID] = struct{}{}
	}

	for _, id := range out.RetireIDs {
		d, ok := w.FindDiagnosis(id)
		switch {
		case !ok:
			drop(id, "unknown diagnosis")
			continue
		case d.Creator == clinical.CreatorDoctor:
			drop(id, "doctor diagnosis cannot be retired")
			continue
		case !g.CanRetire(id):
			drop(id, "retirement not in grant scope")
			continue
		}
		d.Relevance = clinical.RelevanceRedundant
		delete(touched, id)
	}

	for _, id := range slices.Sorted(maps.Keys(out.EvidenceLinks)) {
		links := out.EvidenceLinks[id]
		d, ok := w.FindDiagnosis(id)
		switch {
		case !g.Allows(grants.AttachEvidence):
			drop(id, "AttachEvidence not granted")
			continue
		case !ok:
			drop(id, "unknown diagnosis")
			continue
		case !d.Active():
			drop(id, "diagnosis is redundant")
			continue
		}

		d.SupportingEvidenceIDs = union(d.SupportingEvidenceIDs, knownEvidence(id, links.Supporting))
		d.ConflictingEvidenceIDs = union(d.ConflictingEvidenceIDs, knownEvidence(id, links.Conflicting))
		touched[id] = struct{}{}
	}

	for _, id := range slices.Sorted(maps.Keys(out.ConfidenceUpdates)) {
		d, ok := w.FindDiagnosis(id)
		switch {
		case !g.Allows(grants.UpdateConfidenceMetrics):
			drop(id, "UpdateConfidenceMetrics not granted")
		case !ok:
			drop(id, "unknown diagnosis")
		case !d.Active():
			drop(id, "diagnosis is redundant")
		default:
			touched[id] = struct{}{}
		}
	}

	for _, note := range out.Evaluations {
		switch {
		case !g.Allows(grants.GenerateDiagnosisAdvisory):
			drop(note.DiagnosisID, "GenerateDoctorAdvisory not granted")
		case strings.TrimSpace(note.Assessment) == "":
			drop(note.DiagnosisID, "empty assessment")
		default:
			if _, ok := w.FindDiagnosis(note.DiagnosisID); !ok {
				drop(note.DiagnosisID, "unknown diagnosis")
				continue
			}
			w.Advisories.Evaluations = append(w.Advisories.Evaluations, note)
		}
	}

	rescoreAll := g.Allows(grants.UpdateConfidenceMetrics)
	for i := range w.Diagnoses {
		d := &w.Diagnoses[i]
		if !d.Active() {
			continue
		}
		if _, ok := touched[d.ID]; ok || rescoreAll {
			d.Metrics = clinical.Score(*d, w.Evidence)
		}
	}

	return violations
}

func union(base, extra []string) []string {
	out := slices.Clone(base)
	if out == nil {
		out = []string{}
	}
	for _, id := range extra {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
