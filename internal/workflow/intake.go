package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/prompts"
)

const intakeReasoning = "Extracted from intake notes"

// Intake is the data a case is opened with.
type Intake struct {
	Patient clinical.Patient `json:"patient" yaml:"patient"`
	Notes   string           `json:"initial_notes" yaml:"notes"`
}

// IntakeFinding is a finding extracted from the intake notes.
type IntakeFinding struct {
	Content      string `json:"content"`
	ClinicalType string `json:"clinical_type"`
}

// IntakeOutput is the decoded intake stage response.
type IntakeOutput struct {
	Eligible        bool            `json:"eligible"`
	Reasoning       string          `json:"reasoning"`
	Positives       []IntakeFinding `json:"positives"`
	Negatives       []IntakeFinding `json:"negatives"`
	SafetyChecklist []string        `json:"safety_checklist"`
	Question        string          `json:"question"`
}

// RunIntake validates the intake demographics, asks the oracle whether the
// notes support a diagnostic session, and builds the initial state of the
// case. Extracted findings become AI evidence sourced from the notes. The
// baseline is left empty so the first turn sees them as added.
func RunIntake(ctx context.Context, rt *Runtime, caseID uuid.UUID, in Intake) (*clinical.State, *IntakeOutput, []grants.Violation, error) {
	if err := in.Patient.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrIntakeFailed, err)
	}

	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrIntakeFailed, clinical.ErrEmptyContent)
	}

	s := clinical.New(caseID, in.Patient, notes)

	out, err := invoke[IntakeOutput](ctx, rt, prompts.StageIntake, newCaseView(s), nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrIntakeFailed, err)
	}

	if !out.Eligible {
		return nil, &out, nil, fmt.Errorf("%w: %s", ErrIneligible, strings.TrimSpace(out.Reasoning))
	}

	var violations []grants.Violation
	add := func(f IntakeFinding, p clinical.Polarity) {
		content := strings.TrimSpace(f.Content)
		t, err := clinical.ParseClinicalType(f.ClinicalType)
		switch {
		case content == "":
			violations = append(violations, grants.NewViolation(string(prompts.StageIntake), "new entry", "empty content"))
			return
		case err != nil:
			violations = append(violations, grants.NewViolation(string(prompts.StageIntake), itemLabel(content), err.Error()))
			return
		case s.HasActiveEvidence(content, p):
			violations = append(violations, grants.NewViolation(string(prompts.StageIntake), itemLabel(content), "duplicates active evidence"))
			return
		}

		s.Evidence = append(s.Evidence, clinical.Evidence{
			ID:           clinical.NewEvidenceID(),
			Creator:      clinical.CreatorAI,
			Content:      content,
			ClinicalType: t,
			Polarity:     p,
			Reasoning:    intakeReasoning,
			Relevance:    clinical.RelevanceActive,
			Source:       clinical.SourceInitialNotes,
		})
	}

	for _, f := range out.Positives {
		add(f, clinical.PolarityPositive)
	}
	for _, f := range out.Negatives {
		add(f, clinical.PolarityNegative)
	}

	s.SafetyChecklist = make([]string, 0, len(out.SafetyChecklist))
	for _, item := range out.SafetyChecklist {
		if item = strings.TrimSpace(item); item != "" {
			s.SafetyChecklist = append(s.SafetyChecklist, item)
		}
	}

	strategy := &clinical.DiagnosticStrategy{
		DifferentialStatus: clinical.StatusExpanding,
		Summary:            strings.TrimSpace(out.Reasoning),
	}
	if q := strings.TrimSpace(out.Question); q != "" {
		strategy.NextQuestion = &q
		s.Transcript = append(s.Transcript, clinical.Message{Turn: 0, Role: clinical.RoleAI, Content: q})
	}
	s.Strategy = strategy

	rt.Logger.InfoContext(
		ctx, "intake complete",
		"case_id", caseID,
		"positives", len(s.PositiveEvidence()),
		"negatives", len(s.NegativeEvidence()),
		"dropped", len(violations),
	)

	return s, &out, violations, nil
}
