package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Validation errors
	ErrNotPDF        = errors.New("please select a valid PDF file")
	ErrUnknownIntent = errors.New("unknown intent")

	// Conflict errors
	ErrUploadInProgress = errors.New("wait for the current upload to finish")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
)

// BackendError is a non-2xx answer of the processing backend
type BackendError struct {
	StatusCode int
	Status     string // status text without the code, e.g. "Bad Request"
	Detail     string // structured detail, empty when the body had none
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend %d: %s", e.StatusCode, e.Status)
}

// FailureMessage builds the user-facing message of a failed operation:
// the backend detail when present, otherwise "<operation> failed: <reason>".
func FailureMessage(operation string, err error) string {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		if backendErr.Detail != "" {
			return backendErr.Detail
		}
		return fmt.Sprintf("%s failed: %s", operation, backendErr.Status)
	}

	return fmt.Sprintf("%s failed: %v", operation, err)
}
