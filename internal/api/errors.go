// Package api provides error types for GeneFit API responses.
package api

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports missing or malformed input. It is raised before any
// request is sent and is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TransportError is a network failure or a 5xx response. During polling it is
// tolerated; during submit it ends the flow.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError means the API explicitly rejected the request.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.Code, e.Message)
}

// NotFoundError is returned for an unknown job, user or plan.
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s not found: %s", e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// TimeoutError ends a tracking flow whose job did not reach a terminal status in time.
type TimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s did not finish within %s", e.JobID, e.Elapsed.Round(time.Second))
}

// NewValidationError creates a ValidationError.
func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var v *TransportError
	return errors.As(err, &v)
}

// IsServer reports whether err is (or wraps) a ServerError.
func IsServer(err error) bool {
	var v *ServerError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var v *TimeoutError
	return errors.As(err, &v)
}

// Message returns the user-facing text of err: the server's detail for
// ServerError, the plain message for ValidationError, err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
