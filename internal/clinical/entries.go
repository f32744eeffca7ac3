package clinical

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Evidence is a single clinical finding. Entries are never deleted; retiring
// an entry marks it Redundant so it drops out of the active sets.
type Evidence struct {
	ID           string       `json:"id"`
	Creator      Creator      `json:"creator"`
	Content      string       `json:"content"`
	ClinicalType ClinicalType `json:"clinical_type"`
	Polarity     Polarity     `json:"polarity"`
	Reasoning    string       `json:"reasoning"`
	Relevance    Relevance    `json:"relevance"`
	Source       Source       `json:"source,omitempty"`
}

// Active reports whether the entry participates in active evidence sets.
func (e Evidence) Active() bool {
	return e.Relevance != RelevanceRedundant
}

// ClinicalMetric holds the scores behind a diagnosis' confidence.
// Confidence is derived from SupportScore and ConflictScore by the scoring
// policy and is never set on its own.
type ClinicalMetric struct {
	Confidence    float64 `json:"confidence"`
	SupportScore  float64 `json:"support_score"`
	ConflictScore float64 `json:"conflict_score"`
}

// Diagnosis is a hypothesis in the differential. The name and reasoning of
// Doctor diagnoses are authoritative and never rewritten by the system.
type Diagnosis struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Creator                Creator        `json:"creator"`
	Reasoning              string         `json:"reasoning"`
	Metrics                ClinicalMetric `json:"metrics"`
	SupportingEvidenceIDs  []string       `json:"supporting_evidence_ids"`
	ConflictingEvidenceIDs []string       `json:"conflicting_evidence_ids"`
	Relevance              Relevance      `json:"relevance"`
}

// Active reports whether the diagnosis participates in the active differential.
func (d Diagnosis) Active() bool {
	return d.Relevance != RelevanceRedundant
}

func (d Diagnosis) clone() Diagnosis {
	d.SupportingEvidenceIDs = slices.Clone(d.SupportingEvidenceIDs)
	d.ConflictingEvidenceIDs = slices.Clone(d.ConflictingEvidenceIDs)
	return d
}

// ReasoningStep is the orchestrator's single decision for a turn.
type ReasoningStep struct {
	Turn        int    `json:"turn"`
	Thought     string `json:"thought"`
	ActionTaken Action `json:"action_taken"`
}

// DiagnosticStrategy is replaced wholesale by the orchestrator each turn.
type DiagnosticStrategy struct {
	NextQuestion       *string            `json:"next_question"`
	DifferentialStatus DifferentialStatus `json:"differential_status"`
	Summary            string             `json:"summary"`
}

// EvaluationNote is an advisory assessment of one diagnosis.
type EvaluationNote struct {
	DiagnosisID string `json:"diagnosis_id"`
	Assessment  string `json:"assessment"`
}

// Advisories holds the doctor-facing notes produced by the last turn.
// They never mutate Doctor data.
type Advisories struct {
	EvidenceNote string           `json:"evidence_note,omitempty"`
	Evaluations  []EvaluationNote `json:"evaluations,omitempty"`
}

// Patient carries the intake demographics of a case.
type Patient struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

var genders = []string{"Male", "Female", "Non-binary", "Other", "Unknown"}

// Validate checks intake demographics: a name, an age between 1 and 149,
// and one of the recorded gender values.
func (p Patient) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidPatient)
	}
	if p.Age <= 0 || p.Age >= 150 {
		return fmt.Errorf("%w: age %d out of range", ErrInvalidPatient, p.Age)
	}
	if !slices.Contains(genders, p.Gender) {
		return fmt.Errorf("%w: gender %q", ErrInvalidPatient, p.Gender)
	}
	return nil
}

// Role identifies the author of a transcript message.
type Role string

const (
	RoleDoctor Role = "Doctor"
	RoleAI     Role = "AI"
)

// Message is one entry of the case transcript.
type Message struct {
	Turn    int    `json:"turn"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewEvidenceID returns a fresh, stable evidence identifier.
func NewEvidenceID() string {
	return "ev_" + uuid.NewString()
}

// NewDiagnosisID returns a fresh, stable diagnosis identifier.
func NewDiagnosisID() string {
	return "diag_" + uuid.NewString()
}
