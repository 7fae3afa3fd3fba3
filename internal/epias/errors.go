package epias

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when username or password is empty.
var ErrMissingCredentials = errors.New("epias: missing credentials")

// AuthError reports a rejected ticket request.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("epias: authentication failed: status %d: %s", e.StatusCode, e.Body)
}

// FailureReason classifies a failed category request.
type FailureReason string

const (
	ReasonStatus    FailureReason = "status"
	ReasonTimeout   FailureReason = "timeout"
	ReasonTransport FailureReason = "transport"
	ReasonDecode    FailureReason = "decode"
)

// FetchError describes why a category request yielded no data.
type FetchError struct {
	Endpoint   string
	Reason     FailureReason
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Reason == ReasonStatus:
		return fmt.Sprintf("epias: %s: http %d", e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("epias: %s: %s: %v", e.Endpoint, e.Reason, e.Err)
	default:
		return fmt.Sprintf("epias: %s: %s", e.Endpoint, e.Reason)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
