package prompts

import "errors"

// Domain errors for prompt lookup.
var (
	ErrInvalidStage  = errors.New("stage must be intake, orchestrate, evidence, or diagnosis")
	ErrEmptyOverride = errors.New("instruction override is empty")
)
