// Package grants defines the capability grants the orchestrator issues to the
// auditor stages. A grant names exactly which actions an auditor may take,
// which existing AI-owned entries it may update or retire, and why it runs.
package grants

import (
	"encoding/json"
	"fmt"
	"slices"
)

// EvidenceReason is a cause tag for running the evidence auditor.
type EvidenceReason string

const (
	ReasonImplicitUpdate     EvidenceReason = "Implicit Evidence Update"
	ReasonImplicitExtraction EvidenceReason = "Implicit Extraction"
	ReasonRedundancyCheck    EvidenceReason = "Redundancy Check"
	ReasonEvidenceAdvisory   EvidenceReason = "Doctor Advisory"
)

// EvidenceAction is an operation the evidence auditor may be granted.
type EvidenceAction string

const (
	CreateImplicitEvidence   EvidenceAction = "CreateImplicitEvidence"
	UpdateAIEvidence         EvidenceAction = "UpdateAIEvidence"
	MarkAIEvidenceRedundant  EvidenceAction = "MarkAIRedundant"
	GenerateEvidenceAdvisory EvidenceAction = "GenerateDoctorAdvisory"
)

// ImplicitSource names where implicit evidence may be extracted from.
type ImplicitSource string

const (
	SourceDoctorChat   ImplicitSource = "DoctorChat"
	SourceInitialNotes ImplicitSource = "InitialNotes"
)

// DiagnosisReason is a cause tag for running the diagnosis auditor.
type DiagnosisReason string

const (
	ReasonNoDiagnosis    DiagnosisReason = "No Diagnosis"
	ReasonDiagnosisStale DiagnosisReason = "Diagnosis Stale"
	ReasonEvidenceDriven DiagnosisReason = "Evidence-Driven Update"
	ReasonDoctorReview   DiagnosisReason = "Doctor Diagnosis Review"
)

// DiagnosisAction is an operation the diagnosis auditor may be granted.
type DiagnosisAction string

const (
	CreateAIDiagnosis         DiagnosisAction = "CreateAIDiagnosis"
	UpdateAIDiagnosis         DiagnosisAction = "UpdateAIDiagnosis"
	AttachEvidence            DiagnosisAction = "AttachEvidence"
	UpdateConfidenceMetrics   DiagnosisAction = "UpdateConfidenceMetrics"
	MarkAIDiagnosisRedundant  DiagnosisAction = "MarkAIRedundant"
	GenerateDiagnosisAdvisory DiagnosisAction = "GenerateDoctorAdvisory"
)

var (
	evidenceReasons  = []EvidenceReason{ReasonImplicitUpdate, ReasonImplicitExtraction, ReasonRedundancyCheck, ReasonEvidenceAdvisory}
	evidenceActions  = []EvidenceAction{CreateImplicitEvidence, UpdateAIEvidence, MarkAIEvidenceRedundant, GenerateEvidenceAdvisory}
	implicitSources  = []ImplicitSource{SourceDoctorChat, SourceInitialNotes}
	diagnosisReasons = []DiagnosisReason{ReasonNoDiagnosis, ReasonDiagnosisStale, ReasonEvidenceDriven, ReasonDoctorReview}
	diagnosisActions = []DiagnosisAction{
		CreateAIDiagnosis,
		UpdateAIDiagnosis,
		AttachEvidence,
		UpdateConfidenceMetrics,
		MarkAIDiagnosisRedundant,
		GenerateDiagnosisAdvisory,
	}
)

func (r *EvidenceReason) UnmarshalJSON(data []byte) error {
	return decodeTag(data, evidenceReasons, r)
}

func (a *EvidenceAction) UnmarshalJSON(data []byte) error {
	return decodeTag(data, evidenceActions, a)
}

func (s *ImplicitSource) UnmarshalJSON(data []byte) error {
	return decodeTag(data, implicitSources, s)
}

func (r *DiagnosisReason) UnmarshalJSON(data []byte) error {
	return decodeTag(data, diagnosisReasons, r)
}

func (a *DiagnosisAction) UnmarshalJSON(data []byte) error {
	return decodeTag(data, diagnosisActions, a)
}

func decodeTag[T ~string](data []byte, valid []T, dst *T) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := T(raw)
	if !slices.Contains(valid, v) {
		return fmt.Errorf("%w: %q", ErrInvalidTag, raw)
	}
	*dst = v
	return nil
}

// requireFields reports the first key in keys that is absent or null in data.
func requireFields(data []byte, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("%w: %s", ErrMissingField, k)
		}
	}
	return nil
}
