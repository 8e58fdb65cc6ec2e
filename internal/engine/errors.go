package engine

import "fmt"

// ValidationError indicates malformed or missing caller input. Field names the
// offending input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError indicates a status transition raced with another writer or the
// request was already in a terminal state.
type ConflictError struct {
	RequestID string
	Status    string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("request %s is not pending (status %s)", e.RequestID, e.Status)
}

func required(field, value string) error {
	if value == "" {
		return ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}
