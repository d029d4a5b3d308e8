package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the API boundary. Controllers map these to
// HTTP status codes; the core never retries on its own.
var (
	// ErrSubmissionNotFound is returned for an unknown submission id.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrConcurrentModification is returned when a transition loses a race
	// on the same submission. The caller must re-read before retrying.
	ErrConcurrentModification = errors.New("submission was modified concurrently")
)

// InvalidFormNameError is returned when a form name is not one of the
// three intake forms.
type InvalidFormNameError struct {
	FormType string
}

func (e *InvalidFormNameError) Error() string {
	return fmt.Sprintf("invalid form name '%s'", e.FormType)
}

// IllegalTransitionError is returned when an action is attempted from a
// state it is not permitted in, or when its guard fails. CurrentStatus
// carries the actual status code so the caller can resynchronize.
type IllegalTransitionError struct {
	Action        string
	CurrentStatus string
	Reason        string
}

func (e *IllegalTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("illegal transition '%s' from status '%s': %s", e.Action, e.CurrentStatus, e.Reason)
	}
	return fmt.Sprintf("illegal transition '%s' from status '%s'", e.Action, e.CurrentStatus)
}

// ValidationError is returned for malformed or missing request fields,
// such as empty notes on a superadmin decision.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on '%s': %s", e.Field, e.Message)
}
