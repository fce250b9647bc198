package domain

import "errors"

// ErrValidation, ErrInfeasible and ErrInternal are the sentinel error
// kinds of spec.md §7. Callers should use errors.Is against these
// values; the concrete error returned always wraps one of them with
// fmt.Errorf("...: %w", ...) so the offending detail survives.
var (
	ErrValidation = errors.New("validation error")
	ErrInfeasible = errors.New("infeasible input")
	ErrInternal   = errors.New("internal scheduler error")
)
