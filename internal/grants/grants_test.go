package grants_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
)

const fullEvidenceGrant = `{
  "should_run": true,
  "reasons": ["Implicit Extraction"],
  "target_clinical_types": ["Symptom"],
  "implicit_sources": ["DoctorChat"],
  "allowed_actions": ["CreateImplicitEvidence", "MarkAIRedundant"],
  "to_be_updated_evidence_ids": [],
  "to_be_redundant_evidence_ids": ["ev_1"],
  "objective": "extract"
}`

func TestEvidenceGrantDecode(t *testing.T) {
	var g grants.EvidenceGrant
	if err := json.Unmarshal([]byte(fullEvidenceGrant), &g); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if !g.Allows(grants.CreateImplicitEvidence) || g.Allows(grants.UpdateAIEvidence) {
		t.Error("Allows does not follow allowed_actions")
	}
	if !g.CanRetire("ev_1") || g.CanRetire("ev_2") || g.CanUpdate("ev_1") {
		t.Error("scope checks do not follow the id lists")
	}
	if !g.Targets(clinical.TypeSymptom) || g.Targets(clinical.TypeLab) {
		t.Error("Targets does not follow target_clinical_types")
	}
}

func TestEmptyListsWidenScope(t *testing.T) {
	tests := []struct {
		name      string
		types     []clinical.ClinicalType
		sources   []grants.ImplicitSource
		wantLab   bool
		wantNotes bool
	}{
		{"empty lists", []clinical.ClinicalType{}, []grants.ImplicitSource{}, true, true},
		{"named entries", []clinical.ClinicalType{clinical.TypeSymptom}, []grants.ImplicitSource{grants.SourceDoctorChat}, false, false},
		{"named matches", []clinical.ClinicalType{clinical.TypeLab}, []grants.ImplicitSource{grants.SourceInitialNotes}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := grants.EvidenceGrant{TargetClinicalTypes: tt.types, ImplicitSources: tt.sources}
			if got := g.Targets(clinical.TypeLab); got != tt.wantLab {
				t.Errorf("Targets(Lab) = %t, want %t", got, tt.wantLab)
			}
			if got := g.Sources(grants.SourceInitialNotes); got != tt.wantNotes {
				t.Errorf("Sources(InitialNotes) = %t, want %t", got, tt.wantNotes)
			}
		})
	}
}

func TestGrantDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{
			name:    "missing allowed_actions",
			json:    `{"should_run":false,"reasons":[],"target_clinical_types":[],"implicit_sources":[],"to_be_updated_evidence_ids":[],"to_be_redundant_evidence_ids":[],"objective":""}`,
			wantErr: grants.ErrMissingField,
		},
		{
			name:    "null reasons",
			json:    `{"should_run":false,"reasons":null,"target_clinical_types":[],"implicit_sources":[],"allowed_actions":[],"to_be_updated_evidence_ids":[],"to_be_redundant_evidence_ids":[],"objective":""}`,
			wantErr: grants.ErrMissingField,
		},
		{
			name:    "unknown action",
			json:    `{"should_run":true,"reasons":[],"target_clinical_types":[],"implicit_sources":[],"allowed_actions":["DeleteEvidence"],"to_be_updated_evidence_ids":[],"to_be_redundant_evidence_ids":[],"objective":"x"}`,
			wantErr: grants.ErrInvalidTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g grants.EvidenceGrant
			if err := json.Unmarshal([]byte(tt.json), &g); !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		grant   grants.DiagnosisGrant
		wantErr error
	}{
		{
			name:  "idle",
			grant: grants.DiagnosisGrant{Reasons: []grants.DiagnosisReason{}, AllowedActions: []grants.DiagnosisAction{}},
		},
		{
			name:    "nil actions",
			grant:   grants.DiagnosisGrant{Reasons: []grants.DiagnosisReason{}},
			wantErr: grants.ErrMissingField,
		},
		{
			name: "runnable without actions",
			grant: grants.DiagnosisGrant{
				ShouldRun:      true,
				Reasons:        []grants.DiagnosisReason{grants.ReasonNoDiagnosis},
				AllowedActions: []grants.DiagnosisAction{},
				Objective:      "x",
			},
			wantErr: grants.ErrNoActions,
		},
		{
			name: "runnable without objective",
			grant: grants.DiagnosisGrant{
				ShouldRun:      true,
				Reasons:        []grants.DiagnosisReason{grants.ReasonNoDiagnosis},
				AllowedActions: []grants.DiagnosisAction{grants.CreateAIDiagnosis},
			},
			wantErr: grants.ErrMissingObjective,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.grant.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckConsistency(t *testing.T) {
	run := grants.EvidenceGrant{ShouldRun: true}
	idle := grants.EvidenceGrant{}
	drun := grants.DiagnosisGrant{ShouldRun: true}
	didle := grants.DiagnosisGrant{}

	tests := []struct {
		action clinical.Action
		eg     grants.EvidenceGrant
		dg     grants.DiagnosisGrant
		ok     bool
	}{
		{clinical.ActionClarify, idle, didle, true},
		{clinical.ActionClarify, run, didle, false},
		{clinical.ActionTriggerBoth, run, drun, true},
		{clinical.ActionTriggerBoth, run, didle, false},
		{clinical.ActionTriggerEvidence, run, didle, true},
		{clinical.ActionTriggerEvidence, run, drun, false},
		{clinical.ActionTriggerDiagnosis, idle, drun, true},
		{clinical.ActionTriggerDiagnosis, idle, didle, false},
		{"Wait", idle, didle, false},
	}

	for _, tt := range tests {
		err := grants.CheckConsistency(tt.action, tt.eg, tt.dg)
		if tt.ok && err != nil {
			t.Errorf("CheckConsistency(%q, %t, %t) error = %v", tt.action, tt.eg.ShouldRun, tt.dg.ShouldRun, err)
		}
		if !tt.ok && !errors.Is(err, grants.ErrInconsistent) {
			t.Errorf("CheckConsistency(%q, %t, %t) error = %v, want ErrInconsistent", tt.action, tt.eg.ShouldRun, tt.dg.ShouldRun, err)
		}
	}
}

func TestScope(t *testing.T) {
	s := clinical.New(uuid.New(), clinical.Patient{Name: "A", Age: 30, Gender: "Male"}, "notes")
	doc, _ := s.AddDoctorEvidence("fever", clinical.TypeSymptom, clinical.PolarityPositive)
	s.Evidence = append(s.Evidence,
		clinical.Evidence{ID: "ev_ai", Creator: clinical.CreatorAI, Relevance: clinical.RelevanceActive},
		clinical.Evidence{ID: "ev_old", Creator: clinical.CreatorAI, Relevance: clinical.RelevanceRedundant},
	)
	s.Diagnoses = append(s.Diagnoses,
		clinical.Diagnosis{ID: "diag_ai", Creator: clinical.CreatorAI, Relevance: clinical.RelevanceActive},
		clinical.Diagnosis{ID: "diag_doc", Creator: clinical.CreatorDoctor, Relevance: clinical.RelevanceActive},
	)

	eg := grants.EvidenceGrant{
		UpdateIDs: []string{"ev_ai", "ev_ai", doc.ID},
		RetireIDs: []string{"ev_old", "ev_missing", "ev_ai"},
	}
	violations := eg.Scope(s)

	if diff := cmp.Diff([]string{"ev_ai"}, eg.UpdateIDs); diff != "" {
		t.Errorf("UpdateIDs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ev_ai"}, eg.RetireIDs); diff != "" {
		t.Errorf("RetireIDs mismatch (-want +got):\n%s", diff)
	}
	if len(violations) != 3 {
		t.Errorf("violations = %v, want 3", violations)
	}

	dg := grants.DiagnosisGrant{
		FocusIDs:  []string{"diag_doc", "diag_missing"},
		UpdateIDs: []string{"diag_ai"},
		RetireIDs: []string{"diag_doc"},
	}
	violations = dg.Scope(s)

	if diff := cmp.Diff([]string{"diag_doc"}, dg.FocusIDs); diff != "" {
		t.Errorf("FocusIDs mismatch (-want +got):\n%s", diff)
	}
	if len(dg.RetireIDs) != 0 {
		t.Errorf("doctor diagnosis left in retire scope: %v", dg.RetireIDs)
	}
	if len(violations) != 2 {
		t.Errorf("violations = %v, want 2", violations)
	}
}
