package grants

import "errors"

// Sentinel errors for grant validation.
var (
	ErrInvalidTag       = errors.New("unknown grant tag")
	ErrMissingField     = errors.New("grant field missing")
	ErrNoActions        = errors.New("runnable grant allows no actions")
	ErrMissingObjective = errors.New("runnable grant has no objective")
	ErrInconsistent     = errors.New("action taken disagrees with grants")
)
