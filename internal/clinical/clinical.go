// Package clinical defines the versioned case snapshot that the turn engine
// advances: evidence, diagnoses, the reasoning chain, the diagnostic strategy,
// and the baseline used to compute what changed between turns.
package clinical

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Creator identifies which class of actor authored an entry.
type Creator string

const (
	CreatorDoctor Creator = "Doctor"
	CreatorAI     Creator = "AI"
)

// ClinicalType classifies a piece of evidence.
type ClinicalType string

const (
	TypeSymptom ClinicalType = "Symptom"
	TypeSign    ClinicalType = "Sign"
	TypeLab     ClinicalType = "Lab"
	TypeHistory ClinicalType = "History"
)

// Relevance marks whether an entry participates in active sets.
// Redundant entries are retained for audit history.
type Relevance string

const (
	RelevanceActive    Relevance = "Active"
	RelevanceRedundant Relevance = "Redundant"
)

// Polarity distinguishes present findings from explicitly absent ones.
type Polarity string

const (
	PolarityPositive Polarity = "Positive"
	PolarityNegative Polarity = "Negative"
)

// Source records where an evidence entry was derived from.
type Source string

const (
	SourceDoctor       Source = "Doctor"
	SourceDoctorChat   Source = "DoctorChat"
	SourceInitialNotes Source = "InitialNotes"
)

// Action is the single decision recorded by the orchestrator each turn.
type Action string

const (
	ActionTriggerEvidence  Action = "Trigger Evidence Auditor"
	ActionTriggerDiagnosis Action = "Trigger Diagnosis Auditor"
	ActionTriggerBoth      Action = "Trigger Both"
	ActionClarify          Action = "Request Clarification"
)

// DifferentialStatus describes the direction of the differential this turn.
type DifferentialStatus string

const (
	StatusExpanding DifferentialStatus = "Expanding"
	StatusNarrowing DifferentialStatus = "Narrowing"
	StatusStable    DifferentialStatus = "Stable"
)

// Trigger records what caused the current turn.
type Trigger string

const (
	TriggerStart Trigger = "Start_Diagnosis"
	TriggerUI    Trigger = "UI"
)

var (
	creators      = []Creator{CreatorDoctor, CreatorAI}
	clinicalTypes = []ClinicalType{TypeSymptom, TypeSign, TypeLab, TypeHistory}
	relevances    = []Relevance{RelevanceActive, RelevanceRedundant}
	polarities    = []Polarity{PolarityPositive, PolarityNegative}
	sources       = []Source{SourceDoctor, SourceDoctorChat, SourceInitialNotes}
	actions       = []Action{ActionTriggerEvidence, ActionTriggerDiagnosis, ActionTriggerBoth, ActionClarify}
	statuses      = []DifferentialStatus{StatusExpanding, StatusNarrowing, StatusStable}
	triggers      = []Trigger{TriggerStart, TriggerUI}
)

// ClinicalTypes returns the valid evidence classifications.
func ClinicalTypes() []ClinicalType {
	return clinicalTypes
}

// Valid reports whether t is one of the four evidence classifications.
func (t ClinicalType) Valid() bool { return slices.Contains(clinicalTypes, t) }

// Valid reports whether a is a known orchestrator action.
func (a Action) Valid() bool { return slices.Contains(actions, a) }

// Valid reports whether c is a known creator.
func (c Creator) Valid() bool { return slices.Contains(creators, c) }

// Valid reports whether p is a known polarity.
func (p Polarity) Valid() bool { return slices.Contains(polarities, p) }

// Valid reports whether s is a known differential status.
func (s DifferentialStatus) Valid() bool { return slices.Contains(statuses, s) }

func (c *Creator) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, creators, c)
}

func (t *ClinicalType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, clinicalTypes, t)
}

func (r *Relevance) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, relevances, r)
}

func (p *Polarity) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, polarities, p)
}

func (s *Source) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, sources, s)
}

func (a *Action) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, actions, a)
}

func (s *DifferentialStatus) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, statuses, s)
}

func (t *Trigger) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, triggers, t)
}

// ParseClinicalType validates a string as an evidence classification.
func ParseClinicalType(s string) (ClinicalType, error) {
	v := ClinicalType(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: clinical type %q", ErrInvalidValue, s)
	}
	return v, nil
}

// ParsePolarity validates a string as an evidence polarity.
func ParsePolarity(s string) (Polarity, error) {
	v := Polarity(s)
	if !v.Valid() {
		return "", fmt.Errorf("%w: polarity %q", ErrInvalidValue, s)
	}
	return v, nil
}

func decodeEnum[T ~string](data []byte, valid []T, dst *T) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := T(raw)
	if !slices.Contains(valid, v) {
		return fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	*dst = v
	return nil
}
