package models

import (
	"errors"
	"fmt"
)

// ErrorMessageResponse is the error payload the backend attaches to non-2xx
// responses. Which field carries the text varies by endpoint.
type ErrorMessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Text returns whichever field the backend populated
func (e ErrorMessageResponse) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// Sentinel errors for conditions the caller is expected to branch on.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("no authentication token found")
	ErrNotConnected       = errors.New("realtime connection is not established")
	ErrEmptyVehicleNumber = errors.New("vehicle number must not be empty")
	ErrEmptyMessage       = errors.New("message must not be empty")
)

// ServerError carries a non-2xx response through to the caller. Body holds
// the error text the backend attached, or the raw body when the payload is
// not the standard error shape.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error with status code %d", e.Status)
	}
	return fmt.Sprintf("server error with status code %d: %s", e.Status, e.Body)
}

// DecodeError wraps a malformed server payload. There is no partial-data
// recovery; the previous state is kept by the caller.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "failed to parse the server response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }
