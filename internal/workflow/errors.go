package workflow

import "errors"

// Stage failures. Each wraps the cause that ended the stage.
var (
	ErrIntakeFailed      = errors.New("intake failed")
	ErrOrchestrateFailed = errors.New("orchestration failed")
	ErrEvidenceFailed    = errors.New("evidence audit failed")
	ErrDiagnosisFailed   = errors.New("diagnosis audit failed")
	ErrMergeFailed       = errors.New("merge failed")
)

var (
	// ErrRetriesExhausted is returned when every attempt of a stage call failed.
	ErrRetriesExhausted = errors.New("stage retry budget exhausted")
	// ErrIneligible is returned when the intake stage rejects the case notes.
	ErrIneligible = errors.New("intake notes not eligible for diagnosis")
	// ErrMissingTurnState indicates the workflow state bag lost the turn state.
	ErrMissingTurnState = errors.New("turn state missing from workflow state")
)

// Output validation failures. Raised inside a stage attempt and reported
// as schema violations.
var (
	ErrMissingThought         = errors.New("reasoning step has no thought")
	ErrInvalidStrategy        = errors.New("strategy has an invalid differential status")
	ErrClarifyWithoutQuestion = errors.New("clarification requested without a next question")
)
