package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every ValidationError
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("not found")
)

// ValidationError reports why a funnel draft could not be produced
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) succeed
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
