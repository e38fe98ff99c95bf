package orchestrator

import (
	"fmt"
	"unicode/utf8"
)

// Message length bounds for one chat turn, in characters after trimming.
const (
	MinMessageLen = 5
	MaxMessageLen = 1000
)

// Validation bounds.
const (
	BoundEmpty    = "empty"
	BoundTooShort = "too short"
	BoundTooLong  = "too long"
)

// ValidationError reports a message that fails the length preconditions.
// It is raised before any network call and is never retried.
type ValidationError struct {
	Bound string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Bound)
}

// ValidateMessage checks the trimmed message length against the bounds.
// Length is counted in runes so multibyte text is held to the same limits
// as ASCII.
func ValidateMessage(trimmed string) error {
	length := utf8.RuneCountInString(trimmed)
	switch {
	case length == 0:
		return &ValidationError{Bound: BoundEmpty}
	case length < MinMessageLen:
		return &ValidationError{Bound: BoundTooShort}
	case length > MaxMessageLen:
		return &ValidationError{Bound: BoundTooLong}
	}
	return nil
}
