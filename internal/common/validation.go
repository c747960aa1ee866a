package common

import "fmt"

// ValidationError reports a problem with a single form field.
// errors.Is(err, ErrorValidation) holds for every ValidationError, and
// errors.Is(err, ve.Err) matches the specific cause.
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError is a shorthand constructor.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}
