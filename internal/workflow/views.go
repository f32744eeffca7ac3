package workflow

import (
	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
)

// Views are the serialized case context each stage receives. Auditors see
// the working state as merged so far, never another stage's raw output.

type caseView struct {
	Turn             int                  `json:"turn"`
	Patient          clinical.Patient     `json:"patient"`
	InitialNotes     string               `json:"initial_notes"`
	SafetyChecklist  []string             `json:"safety_checklist"`
	PositiveEvidence []clinical.Evidence  `json:"positive_evidence"`
	NegativeEvidence []clinical.Evidence  `json:"negative_evidence"`
	Diagnoses        []clinical.Diagnosis `json:"diagnoses"`
}

type orchestratorView struct {
	caseView
	ReasoningChain []clinical.ReasoningStep     `json:"reasoning_chain"`
	Summary        string                       `json:"diagnosis_summary"`
	Strategy       *clinical.DiagnosticStrategy `json:"diagnosis_strategy"`
	Trigger        clinical.Trigger             `json:"last_mutation_source"`
	DoctorDelta    clinical.Delta               `json:"doctor_delta"`
	AIDelta        clinical.Delta               `json:"ai_delta"`
	Message        string                       `json:"doctor_last_chat"`
}

type evidenceView struct {
	caseView
	Grant   grants.EvidenceGrant `json:"grant"`
	Delta   clinical.Delta       `json:"delta"`
	Message string               `json:"doctor_last_chat"`
}

type diagnosisView struct {
	caseView
	Grant grants.DiagnosisGrant `json:"grant"`
	Delta clinical.Delta        `json:"delta"`
}

func newCaseView(s *clinical.State) caseView {
	return caseView{
		Turn:             s.Turn,
		Patient:          s.Patient,
		InitialNotes:     s.InitialNotes,
		SafetyChecklist:  s.SafetyChecklist,
		PositiveEvidence: s.PositiveEvidence(),
		NegativeEvidence: s.NegativeEvidence(),
		Diagnoses:        s.ActiveDiagnoses(),
	}
}

func newOrchestratorView(ts *TurnState) orchestratorView {
	w := ts.Working
	return orchestratorView{
		caseView:       newCaseView(w),
		ReasoningChain: w.ReasoningChain,
		Summary:        w.Summary,
		Strategy:       w.Strategy,
		Trigger:        w.Trigger,
		DoctorDelta:    ts.Delta.ByActor(clinical.CreatorDoctor),
		AIDelta:        ts.Delta.ByActor(clinical.CreatorAI),
		Message:        ts.Message,
	}
}

func newEvidenceView(ts *TurnState, g grants.EvidenceGrant) evidenceView {
	return evidenceView{
		caseView: newCaseView(ts.Working),
		Grant:    g,
		Delta:    ts.Delta,
		Message:  ts.Message,
	}
}

func newDiagnosisView(ts *TurnState, g grants.DiagnosisGrant) diagnosisView {
	return diagnosisView{
		caseView: newCaseView(ts.Working),
		Grant:    g,
		Delta:    ts.Delta,
	}
}
