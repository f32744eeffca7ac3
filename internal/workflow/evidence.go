package workflow

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/prompts"
)

// EvidenceNode returns a state node that runs the evidence auditor under the
// orchestrator's evidence grant and folds its output into the working state.
// Items the grant does not authorize are dropped with a warning.
func EvidenceNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ts, err := extractTurnState(s)
		if err != nil {
			return s, fmt.Errorf("evidence: %w", err)
		}

		grant := ts.Outputs.Orchestrator.EvidenceGrant

		out, err := invoke[EvidenceAuditOutput](ctx, rt, prompts.StageEvidence, newEvidenceView(ts, grant), nil)
		if err != nil {
			return s, ts.fail(fmt.Errorf("%w: %w", ErrEvidenceFailed, err))
		}

		before := len(ts.Working.Evidence)
		violations := ApplyEvidence(ts.Working, &grant, &out)
		ts.warn(violations...)
		ts.Outputs.Evidence = &out

		rt.Logger.InfoContext(
			ctx, "evidence node complete",
			"created", len(ts.Working.Evidence)-before,
			"proposed", len(out.NewEvidence)+len(out.UpdatedEvidence)+len(out.RetireIDs),
			"dropped", len(violations),
		)

		return s, nil
	})
}

// ApplyEvidence folds an evidence auditor output into w under grant g and
// returns a violation for every item it dropped. Accepted items are applied
// even when others are dropped.
func ApplyEvidence(w *clinical.State, g *grants.EvidenceGrant, out *EvidenceAuditOutput) []grants.Violation {
	var violations []grants.Violation
	drop := func(item, reason string) {
		violations = append(violations, grants.NewViolation(grants.StageEvidence, item, reason))
	}

	for _, p := range out.NewEvidence {
		e, reason := newAIEvidence(w, g, p)
		if reason != "" {
			drop(itemLabel(p.Content), reason)
			continue
		}
		w.Evidence = append(w.Evidence, e)
	}

	for _, r := range out.UpdatedEvidence {
		if reason := reviseEvidence(w, g, r); reason != "" {
			drop(r.ID, reason)
		}
	}

	for _, id := range out.RetireIDs {
		if reason := retireAIEvidence(w, g, id); reason != "" {
			drop(id, reason)
		}
	}

	if note := strings.TrimSpace(out.AdvisoryNote); note != "" {
		if g.Allows(grants.GenerateEvidenceAdvisory) {
			w.Advisories.EvidenceNote = note
		} else {
			drop("doctor_advisory", "GenerateDoctorAdvisory not granted")
		}
	}

	return violations
}

func newAIEvidence(w *clinical.State, g *grants.EvidenceGrant, p ProposedEvidence) (clinical.Evidence, string) {
	if !g.Allows(grants.CreateImplicitEvidence) {
		return clinical.Evidence{}, "CreateImplicitEvidence not granted"
	}
	if reason := checkCreator(p.Creator); reason != "" {
		return clinical.Evidence{}, reason
	}

	content := strings.TrimSpace(p.Content)
	if content == "" {
		return clinical.Evidence{}, "empty content"
	}

	t, err := clinical.ParseClinicalType(p.ClinicalType)
	if err != nil {
		return clinical.Evidence{}, err.Error()
	}
	if !g.Targets(t) {
		return clinical.Evidence{}, fmt.Sprintf("clinical type %s not targeted", t)
	}

	polarity := clinical.PolarityPositive
	if p.Polarity != "" {
		if polarity, err = clinical.ParsePolarity(p.Polarity); err != nil {
			return clinical.Evidence{}, err.Error()
		}
	}

	source := grants.SourceDoctorChat
	if p.Source != "" {
		source = grants.ImplicitSource(p.Source)
	}
	if !slices.Contains([]grants.ImplicitSource{grants.SourceDoctorChat, grants.SourceInitialNotes}, source) {
		return clinical.Evidence{}, fmt.Sprintf("unknown source %q", p.Source)
	}
	if !g.Sources(source) {
		return clinical.Evidence{}, fmt.Sprintf("source %s not granted", source)
	}

	if w.HasActiveEvidence(content, polarity) {
		return clinical.Evidence{}, "duplicates active evidence"
	}

	return clinical.Evidence{
		ID:           clinical.NewEvidenceID(),
		Creator:      clinical.CreatorAI,
		Content:      content,
		ClinicalType: t,
		Polarity:     polarity,
		Reasoning:    strings.TrimSpace(p.Reasoning),
		Relevance:    clinical.RelevanceActive,
		Source:       clinical.Source(source),
	}, ""
}

func reviseEvidence(w *clinical.State, g *grants.EvidenceGrant, r EvidenceRevision) string {
	if reason := checkCreator(r.Creator); reason != "" {
		return reason
	}

	e, ok := w.FindEvidence(r.ID)
	switch {
	case !ok:
		return "unknown evidence"
	case e.Creator != clinical.CreatorAI:
		return "evidence is not AI-owned"
	case !g.CanUpdate(r.ID):
		return "update not in grant scope"
	case !e.Active():
		return "evidence is redundant"
	}

	revised := *e
	if content := strings.TrimSpace(r.Content); content != "" {
		revised.Content = content
	}
	if r.ClinicalType != "" {
		t, err := clinical.ParseClinicalType(r.ClinicalType)
		if err != nil {
			return err.Error()
		}
		if !g.Targets(t) {
			return fmt.Sprintf("clinical type %s not targeted", t)
		}
		revised.ClinicalType = t
	}
	if r.Polarity != "" {
		p, err := clinical.ParsePolarity(r.Polarity)
		if err != nil {
			return err.Error()
		}
		revised.Polarity = p
	}
	if reasoning := strings.TrimSpace(r.Reasoning); reasoning != "" {
		revised.Reasoning = reasoning
	}

	*e = revised
	return ""
}

func retireAIEvidence(w *clinical.State, g *grants.EvidenceGrant, id string) string {
	e, ok := w.FindEvidence(id)
	switch {
	case !ok:
		return "unknown evidence"
	case e.Creator != clinical.CreatorAI:
		return "evidence is not AI-owned"
	case !g.CanRetire(id):
		return "retirement not in grant scope"
	}

	e.Relevance = clinical.RelevanceRedundant
	return ""
}

func checkCreator(creator string) string {
	if creator != "" && clinical.Creator(creator) != clinical.CreatorAI {
		return fmt.Sprintf("creator %q is not AI", creator)
	}
	return ""
}

func itemLabel(content string) string {
	const limit = 48
	content = strings.TrimSpace(content)
	if content == "" {
		return "new entry"
	}
	if r := []rune(content); len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return content
}
