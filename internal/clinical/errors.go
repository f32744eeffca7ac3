package clinical

import "errors"

// Sentinel errors for clinical state operations.
var (
	ErrInvalidValue      = errors.New("invalid enumerated value")
	ErrEvidenceNotFound  = errors.New("evidence not found")
	ErrDiagnosisNotFound = errors.New("diagnosis not found")
	ErrEmptyContent      = errors.New("content must not be empty")
	ErrInvalidPatient    = errors.New("invalid patient demographics")
)

// ErrContractViolation is returned when a proposed state transition breaks
// an ownership or history rule that partial acceptance could not repair.
var ErrContractViolation = errors.New("state transition violates contract")
