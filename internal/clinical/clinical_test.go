package clinical_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
)

func newState() *clinical.State {
	return clinical.New(uuid.New(), clinical.Patient{Name: "John Doe", Age: 57, Gender: "Male"}, "Chest pain on exertion.")
}

func TestEnumDecoding(t *testing.T) {
	var ct clinical.ClinicalType
	if err := json.Unmarshal([]byte(`"Lab"`), &ct); err != nil || ct != clinical.TypeLab {
		t.Errorf("Unmarshal Lab = %q, %v", ct, err)
	}
	if err := json.Unmarshal([]byte(`"Imaging"`), &ct); !errors.Is(err, clinical.ErrInvalidValue) {
		t.Errorf("Unmarshal Imaging error = %v, want ErrInvalidValue", err)
	}

	var a clinical.Action
	if err := json.Unmarshal([]byte(`"Trigger Both"`), &a); err != nil || a != clinical.ActionTriggerBoth {
		t.Errorf("Unmarshal action = %q, %v", a, err)
	}
}

func TestPatientValidate(t *testing.T) {
	tests := []struct {
		name    string
		patient clinical.Patient
		valid   bool
	}{
		{"valid", clinical.Patient{Name: "A", Age: 30, Gender: "Female"}, true},
		{"no name", clinical.Patient{Name: " ", Age: 30, Gender: "Female"}, false},
		{"age zero", clinical.Patient{Name: "A", Age: 0, Gender: "Female"}, false},
		{"age 150", clinical.Patient{Name: "A", Age: 150, Gender: "Female"}, false},
		{"unknown gender", clinical.Patient{Name: "A", Age: 30, Gender: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patient.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate error = %v", err)
			}
			if !tt.valid && !errors.Is(err, clinical.ErrInvalidPatient) {
				t.Errorf("Validate error = %v, want ErrInvalidPatient", err)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := newState()
	if _, err := s.AddDoctorEvidence("chest pain", clinical.TypeSymptom, clinical.PolarityPositive); err != nil {
		t.Fatal(err)
	}
	d, _ := s.AddDoctorDiagnosis("Angina", "exertional pain")
	q := "Does rest relieve it?"
	s.Strategy = &clinical.DiagnosticStrategy{NextQuestion: &q, DifferentialStatus: clinical.StatusExpanding}
	s.Commit()

	c := s.Clone()
	c.Evidence[0].Content = "changed"
	c.Diagnoses[0].SupportingEvidenceIDs = append(c.Diagnoses[0].SupportingEvidenceIDs, "ev_x")
	*c.Strategy.NextQuestion = "changed"
	c.Baseline.Evidence["ev_x"] = clinical.RelevanceActive

	if s.Evidence[0].Content != "chest pain" {
		t.Error("evidence shared between clone and original")
	}
	if orig, _ := s.FindDiagnosis(d.ID); len(orig.SupportingEvidenceIDs) != 0 {
		t.Error("diagnosis links shared between clone and original")
	}
	if *s.Strategy.NextQuestion != q {
		t.Error("strategy shared between clone and original")
	}
	if _, ok := s.Baseline.Evidence["ev_x"]; ok {
		t.Error("baseline shared between clone and original")
	}
}

func TestCloneEqualsSource(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*clinical.State)
	}{
		{"fresh case", func(*clinical.State) {}},
		{"with entries", func(s *clinical.State) {
			s.AddDoctorEvidence("fever", clinical.TypeSymptom, clinical.PolarityPositive)
			s.AddDoctorDiagnosis("Influenza", "seasonal")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState()
			tt.setup(s)
			if diff := cmp.Diff(s, s.Clone()); diff != "" {
				t.Errorf("clone differs from source (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDoctorEdits(t *testing.T) {
	s := newState()

	if _, err := s.AddDoctorEvidence("  ", clinical.TypeSign, clinical.PolarityPositive); !errors.Is(err, clinical.ErrEmptyContent) {
		t.Errorf("empty content error = %v", err)
	}
	if _, err := s.AddDoctorEvidence("pallor", "Vital", clinical.PolarityPositive); !errors.Is(err, clinical.ErrInvalidValue) {
		t.Errorf("invalid type error = %v", err)
	}

	e, err := s.AddDoctorEvidence("no fever", clinical.TypeSign, clinical.PolarityNegative)
	if err != nil {
		t.Fatal(err)
	}
	if e.Creator != clinical.CreatorDoctor || e.Source != clinical.SourceDoctor {
		t.Errorf("doctor evidence = %+v", e)
	}
	if len(s.NegativeEvidence()) != 1 || len(s.PositiveEvidence()) != 0 {
		t.Error("negative finding not partitioned")
	}

	if err := s.RetireEvidence(e.ID); err != nil {
		t.Fatal(err)
	}
	if len(s.ActiveEvidence()) != 0 {
		t.Error("retired evidence still active")
	}
	if len(s.Evidence) != 1 {
		t.Error("retired evidence removed from history")
	}
	if err := s.RetireEvidence("ev_missing"); !errors.Is(err, clinical.ErrEvidenceNotFound) {
		t.Errorf("retire unknown error = %v", err)
	}
	if err := s.RetireDiagnosis("diag_missing"); !errors.Is(err, clinical.ErrDiagnosisNotFound) {
		t.Errorf("retire unknown diagnosis error = %v", err)
	}
	if s.Trigger != clinical.TriggerUI {
		t.Errorf("Trigger = %s, want UI", s.Trigger)
	}
}

func TestComputeDelta(t *testing.T) {
	s := newState()
	kept, _ := s.AddDoctorEvidence("chest pain", clinical.TypeSymptom, clinical.PolarityPositive)
	retired, _ := s.AddDoctorEvidence("dyspnea", clinical.TypeSymptom, clinical.PolarityPositive)
	s.Commit()

	if !clinical.ComputeDelta(s).Empty() {
		t.Fatal("delta not empty after commit")
	}

	_ = s.RetireEvidence(retired.ID)
	added, _ := s.AddDoctorEvidence("troponin elevated", clinical.TypeLab, clinical.PolarityPositive)
	s.Evidence = append(s.Evidence, clinical.Evidence{
		ID:           "ev_ai",
		Creator:      clinical.CreatorAI,
		Content:      "diaphoresis",
		ClinicalType: clinical.TypeSign,
		Polarity:     clinical.PolarityPositive,
		Relevance:    clinical.RelevanceActive,
	})

	d := clinical.ComputeDelta(s)
	ids := func(es []clinical.Evidence) []string {
		out := []string{}
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	if diff := cmp.Diff([]string{added.ID, "ev_ai"}, ids(d.Evidence.Added)); diff != "" {
		t.Errorf("Added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{retired.ID}, ids(d.Evidence.Removed)); diff != "" {
		t.Errorf("Removed mismatch (-want +got):\n%s", diff)
	}

	doctor := d.ByActor(clinical.CreatorDoctor)
	if diff := cmp.Diff([]string{added.ID}, ids(doctor.Evidence.Added)); diff != "" {
		t.Errorf("doctor Added mismatch (-want +got):\n%s", diff)
	}
	ai := d.ByActor(clinical.CreatorAI)
	if len(ai.Evidence.Removed) != 0 || len(ai.Evidence.Added) != 1 {
		t.Errorf("ai delta = %+v", ai.Evidence)
	}

	for _, e := range d.Evidence.Added {
		if e.ID == kept.ID {
			t.Error("unchanged evidence reported as added")
		}
	}
}

func TestScoreMonotonic(t *testing.T) {
	evidence := []clinical.Evidence{
		{ID: "lab", ClinicalType: clinical.TypeLab, Relevance: clinical.RelevanceActive},
		{ID: "sign", ClinicalType: clinical.TypeSign, Relevance: clinical.RelevanceActive},
		{ID: "sym", ClinicalType: clinical.TypeSymptom, Relevance: clinical.RelevanceActive},
		{ID: "hist", ClinicalType: clinical.TypeHistory, Relevance: clinical.RelevanceActive},
		{ID: "old", ClinicalType: clinical.TypeLab, Relevance: clinical.RelevanceRedundant},
	}

	score := func(support, conflict []string) float64 {
		d := clinical.Diagnosis{SupportingEvidenceIDs: support, ConflictingEvidenceIDs: conflict}
		return clinical.Score(d, evidence).Confidence
	}

	if got := score(nil, nil); got != 0 {
		t.Errorf("no evidence confidence = %v, want 0", got)
	}

	supports := [][]string{{"hist"}, {"hist", "sym"}, {"hist", "sym", "sign"}, {"hist", "sym", "sign", "lab"}}
	prev := 0.0
	for _, s := range supports {
		c := score(s, nil)
		if c <= prev || c > 1 {
			t.Errorf("support %v confidence %v not increasing within range", s, c)
		}
		prev = c
	}

	all := []string{"lab", "sign", "sym"}
	if score(all, []string{"hist"}) >= score(all, nil) {
		t.Error("conflicting evidence did not lower confidence")
	}
	if score(all, []string{"hist", "lab"}) >= score(all, []string{"hist"}) {
		t.Error("more conflict did not lower confidence further")
	}

	if got := score([]string{"old"}, nil); got != 0 {
		t.Errorf("redundant evidence contributed: %v", got)
	}
	if got := score([]string{"sym", "sym"}, nil); got != score([]string{"sym"}, nil) {
		t.Error("duplicate link counted twice")
	}
	if tier := clinical.TierOf(score(nil, []string{"lab"})); tier == clinical.TierHigh {
		t.Error("zero support with conflict reached high tier")
	}
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		confidence float64
		want       clinical.Tier
	}{
		{0, clinical.TierLow},
		{0.29, clinical.TierLow},
		{0.3, clinical.TierModerate},
		{0.69, clinical.TierModerate},
		{0.7, clinical.TierHigh},
		{1, clinical.TierHigh},
	}

	for _, tt := range tests {
		if got := clinical.TierOf(tt.confidence); got != tt.want {
			t.Errorf("TierOf(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}

func TestVerifyTransition(t *testing.T) {
	base := newState()
	_, _ = base.AddDoctorEvidence("chest pain", clinical.TypeSymptom, clinical.PolarityPositive)
	_, _ = base.AddDoctorDiagnosis("Angina", "exertional pain")
	base.ReasoningChain = []clinical.ReasoningStep{{Turn: 1, Thought: "t", ActionTaken: clinical.ActionClarify}}

	step := clinical.ReasoningStep{Turn: 2, Thought: "next", ActionTaken: clinical.ActionTriggerEvidence}

	tests := []struct {
		name   string
		mutate func(s *clinical.State)
		ok     bool
	}{
		{"valid", func(s *clinical.State) {}, true},
		{"doctor evidence edited", func(s *clinical.State) { s.Evidence[0].Content = "x" }, false},
		{"doctor diagnosis renamed", func(s *clinical.State) { s.Diagnoses[0].Name = "x" }, false},
		{"doctor diagnosis retired", func(s *clinical.State) { s.Diagnoses[0].Relevance = clinical.RelevanceRedundant }, false},
		{"doctor diagnosis rescored", func(s *clinical.State) { s.Diagnoses[0].Metrics = clinical.NewMetric(1, 0) }, true},
		{"evidence removed", func(s *clinical.State) { s.Evidence = nil }, false},
		{"confidence out of range", func(s *clinical.State) { s.Diagnoses[0].Metrics.Confidence = 1.2 }, false},
		{"history rewritten", func(s *clinical.State) { s.ReasoningChain[0].Thought = "x" }, false},
		{"no step", func(s *clinical.State) { s.ReasoningChain = s.ReasoningChain[:1] }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base.Clone()
			next.ReasoningChain = append(next.ReasoningChain, step)
			tt.mutate(next)

			err := clinical.VerifyTransition(base, next)
			if tt.ok && err != nil {
				t.Errorf("VerifyTransition error = %v", err)
			}
			if !tt.ok && !errors.Is(err, clinical.ErrContractViolation) {
				t.Errorf("VerifyTransition error = %v, want ErrContractViolation", err)
			}
		})
	}
}
