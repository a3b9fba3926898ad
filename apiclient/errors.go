package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPatientID is returned before any request when a patient ID is malformed.
	ErrInvalidPatientID = errors.New("invalid patient id")
	// ErrInvalidDoctorID is returned before any request when a doctor ID is blank.
	ErrInvalidDoctorID = errors.New("doctor id is required")
	// ErrEmptyMessage is returned before any request when a follow-up message is blank.
	ErrEmptyMessage = errors.New("message is required")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Payload map[string]any
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// TransportError means the request never produced a response, including timeouts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Message returns the user-facing text of err: the backend message for an APIError and the
// verbatim transport message otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.Err.Error()
	}

	if err == nil {
		return ""
	}

	return err.Error()
}
