package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceNotFound is returned when a referenced gym or check-in does not exist.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrMaxDistance is returned when the user is too far from the gym to check in.
	ErrMaxDistance = errors.New("max distance reached")
	// ErrMaxNumberOfCheckIns is returned when the user already checked in on the same day.
	ErrMaxNumberOfCheckIns = errors.New("max number of check-ins reached")
	// ErrLateCheckInValidation is returned when the validation window has elapsed.
	ErrLateCheckInValidation = errors.New("check-in validation window has expired")
	// ErrCheckInAlreadyValidated is returned when validating a check-in twice.
	ErrCheckInAlreadyValidated = errors.New("check-in already validated")
	// ErrValidation classifies malformed input; see ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
