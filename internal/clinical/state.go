package clinical

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Baseline captures the relevance of every entry at the last committed turn.
// The delta tracker compares current entries against it.
type Baseline struct {
	Evidence  map[string]Relevance `json:"evidence"`
	Diagnoses map[string]Relevance `json:"diagnoses"`
}

// State is the long-lived snapshot of one case. It is mutated once per turn
// by the pipeline merge step and, between turns, by Doctor edits.
type State struct {
	CaseID          uuid.UUID           `json:"case_id"`
	Version         int                 `json:"version"`
	Turn            int                 `json:"turn"`
	Patient         Patient             `json:"patient"`
	InitialNotes    string              `json:"initial_notes"`
	SafetyChecklist []string            `json:"safety_checklist"`
	Evidence        []Evidence          `json:"evidence"`
	Diagnoses       []Diagnosis         `json:"diagnoses"`
	ReasoningChain  []ReasoningStep     `json:"reasoning_chain"`
	Transcript      []Message           `json:"transcript"`
	Strategy        *DiagnosticStrategy `json:"strategy,omitempty"`
	Summary         string              `json:"summary"`
	Trigger         Trigger             `json:"trigger"`
	Baseline        Baseline            `json:"baseline"`
	Advisories      Advisories          `json:"advisories"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// New creates the initial state of a case from intake data.
func New(caseID uuid.UUID, patient Patient, notes string) *State {
	return &State{
		CaseID:       caseID,
		Patient:      patient,
		InitialNotes: notes,
		Trigger:      TriggerStart,
		Baseline: Baseline{
			Evidence:  map[string]Relevance{},
			Diagnoses: map[string]Relevance{},
		},
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy suitable for use as a turn working copy.
func (s *State) Clone() *State {
	c := *s
	c.SafetyChecklist = slices.Clone(s.SafetyChecklist)
	c.Evidence = slices.Clone(s.Evidence)
	if s.Diagnoses != nil {
		c.Diagnoses = make([]Diagnosis, len(s.Diagnoses))
		for i, d := range s.Diagnoses {
			c.Diagnoses[i] = d.clone()
		}
	}
	c.ReasoningChain = slices.Clone(s.ReasoningChain)
	c.Transcript = slices.Clone(s.Transcript)
	if s.Strategy != nil {
		strategy := *s.Strategy
		if s.Strategy.NextQuestion != nil {
			q := *s.Strategy.NextQuestion
			strategy.NextQuestion = &q
		}
		c.Strategy = &strategy
	}
	c.Baseline = Baseline{
		Evidence:  maps.Clone(s.Baseline.Evidence),
		Diagnoses: maps.Clone(s.Baseline.Diagnoses),
	}
	c.Advisories.Evaluations = slices.Clone(s.Advisories.Evaluations)
	return &c
}

// ActiveEvidence returns every evidence entry that is not Redundant.
func (s *State) ActiveEvidence() []Evidence {
	return filter(s.Evidence, Evidence.Active)
}

// PositiveEvidence returns the active findings recorded as present.
func (s *State) PositiveEvidence() []Evidence {
	return filter(s.Evidence, func(e Evidence) bool {
		return e.Active() && e.Polarity != PolarityNegative
	})
}

// NegativeEvidence returns the active findings recorded as absent.
func (s *State) NegativeEvidence() []Evidence {
	return filter(s.Evidence, func(e Evidence) bool {
		return e.Active() && e.Polarity == PolarityNegative
	})
}

// ActiveDiagnoses returns every diagnosis that is not Redundant.
func (s *State) ActiveDiagnoses() []Diagnosis {
	return filter(s.Diagnoses, Diagnosis.Active)
}

// FindEvidence returns a pointer to the evidence entry with the given id.
func (s *State) FindEvidence(id string) (*Evidence, bool) {
	i := slices.IndexFunc(s.Evidence, func(e Evidence) bool { return e.ID == id })
	if i < 0 {
		return nil, false
	}
	return &s.Evidence[i], true
}

// FindDiagnosis returns a pointer to the diagnosis with the given id.
func (s *State) FindDiagnosis(id string) (*Diagnosis, bool) {
	i := slices.IndexFunc(s.Diagnoses, func(d Diagnosis) bool { return d.ID == id })
	if i < 0 {
		return nil, false
	}
	return &s.Diagnoses[i], true
}

// HasActiveDiagnosisNamed reports whether an active diagnosis already carries
// the given name, compared case-insensitively.
func (s *State) HasActiveDiagnosisNamed(name string) bool {
	return s.DiagnosisNameTaken(name, "")
}

// DiagnosisNameTaken reports whether an active diagnosis other than id
// already carries name, compared case-insensitively.
func (s *State) DiagnosisNameTaken(name, id string) bool {
	key := normalizeName(name)
	return slices.ContainsFunc(s.Diagnoses, func(d Diagnosis) bool {
		return d.ID != id && d.Active() && normalizeName(d.Name) == key
	})
}

// HasActiveEvidence reports whether an active entry of the given polarity
// already records the same finding, compared case-insensitively.
func (s *State) HasActiveEvidence(content string, p Polarity) bool {
	key := normalizeName(content)
	return slices.ContainsFunc(s.Evidence, func(e Evidence) bool {
		return e.Active() && e.Polarity == p && normalizeName(e.Content) == key
	})
}

// AddDoctorEvidence records a Doctor-entered finding.
func (s *State) AddDoctorEvidence(content string, t ClinicalType, p Polarity) (Evidence, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Evidence{}, ErrEmptyContent
	}
	if !t.Valid() {
		return Evidence{}, fmt.Errorf("%w: clinical type %q", ErrInvalidValue, t)
	}
	if !p.Valid() {
		return Evidence{}, fmt.Errorf("%w: polarity %q", ErrInvalidValue, p)
	}

	e := Evidence{
		ID:           NewEvidenceID(),
		Creator:      CreatorDoctor,
		Content:      content,
		ClinicalType: t,
		Polarity:     p,
		Relevance:    RelevanceActive,
		Source:       SourceDoctor,
	}
	s.Evidence = append(s.Evidence, e)
	s.Trigger = TriggerUI
	return e, nil
}

// RetireEvidence marks an evidence entry Redundant on the Doctor's behalf.
func (s *State) RetireEvidence(id string) error {
	e, ok := s.FindEvidence(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEvidenceNotFound, id)
	}
	e.Relevance = RelevanceRedundant
	s.Trigger = TriggerUI
	return nil
}

// AddDoctorDiagnosis records a Doctor-authored diagnosis.
func (s *State) AddDoctorDiagnosis(name, reasoning string) (Diagnosis, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Diagnosis{}, ErrEmptyContent
	}

	d := Diagnosis{
		ID:                     NewDiagnosisID(),
		Name:                   name,
		Creator:                CreatorDoctor,
		Reasoning:              reasoning,
		SupportingEvidenceIDs:  []string{},
		ConflictingEvidenceIDs: []string{},
		Relevance:              RelevanceActive,
	}
	s.Diagnoses = append(s.Diagnoses, d)
	s.Trigger = TriggerUI
	return d, nil
}

// RetireDiagnosis marks a diagnosis Redundant on the Doctor's behalf.
func (s *State) RetireDiagnosis(id string) error {
	d, ok := s.FindDiagnosis(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDiagnosisNotFound, id)
	}
	d.Relevance = RelevanceRedundant
	s.Trigger = TriggerUI
	return nil
}

// Commit refreshes the baseline to the current entries so the next delta
// only carries changes made after this point.
func (s *State) Commit() {
	s.Baseline = Baseline{
		Evidence:  make(map[string]Relevance, len(s.Evidence)),
		Diagnoses: make(map[string]Relevance, len(s.Diagnoses)),
	}
	for _, e := range s.Evidence {
		s.Baseline.Evidence[e.ID] = e.Relevance
	}
	for _, d := range s.Diagnoses {
		s.Baseline.Diagnoses[d.ID] = d.Relevance
	}
	s.UpdatedAt = time.Now().UTC()
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
