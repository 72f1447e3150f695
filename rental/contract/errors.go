package contract

import "errors"

var (
	// ErrStageMismatch marks an operation invoked outside its designated
	// stage. Caller error: surfaced, never folded into a Result.
	ErrStageMismatch = errors.New("operation not valid for current stage")

	// ErrIllegalTransition marks an advance attempted before the current
	// stage's gate holds.
	ErrIllegalTransition = errors.New("stage gate not satisfied")

	ErrNotFound    = errors.New("item not found")
	ErrUnavailable = errors.New("item not available")
	ErrValidation  = errors.New("validation failed")
)
