package workflow

import (
	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
)

// State keys used in the workflow state bag.
const (
	KeyTurnState = "turn_state"
)

// Phase is the position of a turn in the pipeline state machine.
type Phase string

const (
	PhaseIdle          Phase = "Idle"
	PhaseOrchestrating Phase = "Orchestrating"
	PhaseAuditing      Phase = "Auditing"
	PhaseMerged        Phase = "Merged"
	PhaseFailed        Phase = "Failed"
)

// StepOutput is the reasoning step proposed by the orchestrator.
type StepOutput struct {
	Thought     string          `json:"thought"`
	ActionTaken clinical.Action `json:"action_taken"`
}

// OrchestratorOutput is the decoded orchestrator response.
type OrchestratorOutput struct {
	ReasoningStep  StepOutput                  `json:"current_reasoning_step"`
	Strategy       clinical.DiagnosticStrategy `json:"strategy"`
	Summary        string                      `json:"diagnosis_summary"`
	EvidenceGrant  grants.EvidenceGrant        `json:"evidence_auditor_grant"`
	DiagnosisGrant grants.DiagnosisGrant       `json:"diagnosis_auditor_grant"`
	Rationale      string                      `json:"trigger_rationale"`
}

// ProposedEvidence is a new finding proposed by the evidence auditor.
// Enumerated fields stay raw strings so an invalid entry can be dropped
// without rejecting the rest of the response.
type ProposedEvidence struct {
	Content      string `json:"content"`
	ClinicalType string `json:"clinical_type"`
	Polarity     string `json:"polarity"`
	Reasoning    string `json:"reasoning"`
	Source       string `json:"source"`
	Creator      string `json:"creator,omitempty"`
}

// EvidenceRevision is an update to an existing AI evidence entry.
type EvidenceRevision struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	ClinicalType string `json:"clinical_type"`
	Polarity     string `json:"polarity"`
	Reasoning    string `json:"reasoning"`
	Creator      string `json:"creator,omitempty"`
}

// EvidenceAuditOutput is the decoded evidence auditor response.
type EvidenceAuditOutput struct {
	NewEvidence     []ProposedEvidence `json:"new_evidence"`
	UpdatedEvidence []EvidenceRevision `json:"updated_evidence"`
	RetireIDs       []string           `json:"redundant_evidence_ids"`
	AdvisoryNote    string             `json:"doctor_advisory"`
}

// ProposedDiagnosis is a new hypothesis proposed by the diagnosis auditor.
type ProposedDiagnosis struct {
	Name                   string   `json:"name"`
	Reasoning              string   `json:"reasoning"`
	SupportingEvidenceIDs  []string `json:"supporting_evidence_ids"`
	ConflictingEvidenceIDs []string `json:"conflicting_evidence_ids"`
}

// DiagnosisRevision is an update to an existing diagnosis.
type DiagnosisRevision struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	Reasoning              string   `json:"reasoning"`
	SupportingEvidenceIDs  []string `json:"supporting_evidence_ids"`
	ConflictingEvidenceIDs []string `json:"conflicting_evidence_ids"`
}

// EvidenceLinks names the evidence supporting and conflicting with a diagnosis.
type EvidenceLinks struct {
	Supporting  []string `json:"supporting"`
	Conflicting []string `json:"conflicting"`
}

// DiagnosisAuditOutput is the decoded diagnosis auditor response.
type DiagnosisAuditOutput struct {
	NewDiagnoses      []ProposedDiagnosis                `json:"new_diagnoses"`
	UpdatedDiagnoses  []DiagnosisRevision                `json:"updated_diagnoses"`
	RetireIDs         []string                           `json:"redundant_diagnosis_ids"`
	ConfidenceUpdates map[string]clinical.ClinicalMetric `json:"confidence_updates"`
	EvidenceLinks     map[string]EvidenceLinks           `json:"evidence_links"`
	Evaluations       []clinical.EvaluationNote          `json:"diagnosis_evaluations"`
}

// Outputs holds what each stage produced this turn. A nil field means the
// stage did not run.
type Outputs struct {
	Orchestrator *OrchestratorOutput   `json:"orchestrator,omitempty"`
	Evidence     *EvidenceAuditOutput  `json:"evidence,omitempty"`
	Diagnosis    *DiagnosisAuditOutput `json:"diagnosis,omitempty"`
}

// TurnState is the per-turn working set carried through the graph. Working
// is a clone of the committed state; Committed is never modified.
type TurnState struct {
	Committed *clinical.State    `json:"-"`
	Working   *clinical.State    `json:"-"`
	Delta     clinical.Delta     `json:"delta"`
	Message   string             `json:"message,omitempty"`
	Phase     Phase              `json:"phase"`
	Outputs   Outputs            `json:"outputs"`
	Warnings  []grants.Violation `json:"warnings"`

	err error
}

// NewTurnState prepares a turn over committed. The delta is computed
// against the committed baseline before any stage runs.
func NewTurnState(committed *clinical.State, message string) *TurnState {
	return &TurnState{
		Committed: committed,
		Working:   committed.Clone(),
		Delta:     clinical.ComputeDelta(committed),
		Message:   message,
		Phase:     PhaseIdle,
		Warnings:  []grants.Violation{},
	}
}

// fail records the error that ended the turn and moves it to Failed.
func (ts *TurnState) fail(err error) error {
	ts.Phase = PhaseFailed
	ts.err = err
	return err
}

func (ts *TurnState) warn(v ...grants.Violation) {
	ts.Warnings = append(ts.Warnings, v...)
}

// RunsEvidence reports whether the orchestrator authorized the evidence auditor.
func (ts *TurnState) RunsEvidence() bool {
	return ts.Outputs.Orchestrator != nil && ts.Outputs.Orchestrator.EvidenceGrant.ShouldRun
}

// RunsDiagnosis reports whether the orchestrator authorized the diagnosis auditor.
func (ts *TurnState) RunsDiagnosis() bool {
	return ts.Outputs.Orchestrator != nil && ts.Outputs.Orchestrator.DiagnosisGrant.ShouldRun
}
