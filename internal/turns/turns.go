// Package turns is the pipeline controller. It serializes turns per case,
// runs the turn graph over a working copy of the committed state, and
// commits the result atomically. Failures never reach the store; they are
// reported as an outcome with a reason tag.
package turns

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/rounds/internal/clinical"
	"github.com/JaimeStill/rounds/internal/grants"
	"github.com/JaimeStill/rounds/internal/workflow"
)

// Status is the terminal status of a turn.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

// Reason tags why a turn failed.
type Reason string

const (
	ReasonOracleUnavailable Reason = "oracle_unavailable"
	ReasonSchemaViolation   Reason = "schema_violation"
	ReasonContractViolation Reason = "contract_violation"
	ReasonCancelled         Reason = "cancelled"
	ReasonConflict          Reason = "conflict"
	ReasonCaseNotFound      Reason = "case_not_found"
	ReasonInternal          Reason = "internal"
)

// Outcome reports how a turn ended. Reason and Error are empty on commit.
type Outcome struct {
	Status Status `json:"status"`
	Reason Reason `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Committed reports whether the turn was committed.
func (o Outcome) Committed() bool {
	return o.Status == StatusCommitted
}

// Result is the account of one turn. State is the committed state after
// the turn, or the unchanged committed state when the turn failed.
type Result struct {
	CaseID   uuid.UUID          `json:"case_id"`
	State    *clinical.State    `json:"state,omitempty"`
	Outputs  workflow.Outputs   `json:"outputs"`
	Delta    clinical.Delta     `json:"delta"`
	Outcome  Outcome            `json:"outcome"`
	Phase    workflow.Phase     `json:"phase"`
	Warnings []grants.Violation `json:"warnings"`
}

// Request asks for one turn on a case.
type Request struct {
	CaseID  uuid.UUID `json:"case_id" yaml:"case_id"`
	Message string    `json:"message" yaml:"message"`
}

// Opening is the result of opening a case from intake data.
type Opening struct {
	State    *clinical.State        `json:"state"`
	Intake   *workflow.IntakeOutput `json:"intake"`
	Warnings []grants.Violation     `json:"warnings"`
}

// Config bounds turn execution.
type Config struct {
	TurnTimeout time.Duration
	Workers     int
}

// System defines the public contract of the pipeline controller.
type System interface {
	// Start opens a case from intake data and stores it.
	Start(ctx context.Context, in workflow.Intake) (*Opening, error)
	// RunTurn advances one case by one turn. Doctor edits since the last
	// turn form the delta the stages see.
	RunTurn(ctx context.Context, caseID uuid.UUID, message string) *Result
	// RunTurns advances independent cases concurrently. Results are in
	// request order. Requests naming the same case run one after another.
	RunTurns(ctx context.Context, reqs []Request) []*Result

	// AddEvidence records a Doctor finding between turns.
	AddEvidence(ctx context.Context, caseID uuid.UUID, content string, t clinical.ClinicalType, p clinical.Polarity) (clinical.Evidence, error)
	// RetireEvidence marks an evidence entry Redundant between turns.
	RetireEvidence(ctx context.Context, caseID uuid.UUID, id string) error
	// AddDiagnosis records a Doctor diagnosis between turns.
	AddDiagnosis(ctx context.Context, caseID uuid.UUID, name, reasoning string) (clinical.Diagnosis, error)
	// RetireDiagnosis marks a diagnosis Redundant between turns.
	RetireDiagnosis(ctx context.Context, caseID uuid.UUID, id string) error
}
