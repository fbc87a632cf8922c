package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes client failures for metrics and caller branching.
type Kind string

const (
	// KindAuthRequired indicates no authenticated session exists.
	KindAuthRequired Kind = "auth_required"
	// KindTokenAcquisition indicates the identity provider failed to issue a token.
	KindTokenAcquisition Kind = "token_acquisition"
	// KindConfigLoad indicates the remote configuration fetch failed.
	KindConfigLoad Kind = "config_load"
	// KindNetwork indicates a transport failure with no response.
	KindNetwork Kind = "network"
	// KindAPI indicates the service answered with a non-success status.
	KindAPI Kind = "api"
)

// Error is the structured failure type for every operation in this package.
// Kind is always set; Status is non-zero only for KindAPI.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the caller may reasonably retry the operation.
// Authentication failures require re-authentication first; API errors depend
// on the status the service returned.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTokenAcquisition, KindConfigLoad, KindNetwork:
		return true
	case KindAPI:
		return e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

// AuthRequiredError reports a call rejected because no session is authenticated.
func AuthRequiredError() *Error {
	return &Error{Kind: KindAuthRequired, Message: "user is not authenticated"}
}

// TokenError wraps a token acquisition failure from the identity provider.
func TokenError(cause error) *Error {
	return &Error{Kind: KindTokenAcquisition, Message: "failed to acquire access token", Cause: cause}
}

// ConfigError wraps a configuration load failure.
func ConfigError(message string, cause error) *Error {
	return &Error{Kind: KindConfigLoad, Message: message, Cause: cause}
}

// NetworkError wraps a transport failure that produced no response.
func NetworkError(cause error) *Error {
	return &Error{Kind: KindNetwork, Message: "request failed", Cause: cause}
}

// APIError reports a non-success response. message should carry the service's
// own message when one was present in the body.
func APIError(status int, message string) *Error {
	return &Error{Kind: KindAPI, Status: status, Message: message}
}

// KindOf extracts the Kind from any error, returning ("", false) when err is
// not an *Error from this package.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
