// Package identity adapts the external identity provider for the API client
// layer. The dashboard authenticates end users in the browser; server-side
// calls use machine credentials against the same provider.
package identity

import "fmt"

// TokenRequestError reports a failed token request against the provider.
// Rejected indicates the provider answered and refused the credentials, as
// opposed to a transport-level failure.
type TokenRequestError struct {
	Rejected bool
	Err      error
}

func (e *TokenRequestError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("token request rejected: %v", e.Err)
	}
	return fmt.Sprintf("token request failed: %v", e.Err)
}

func (e *TokenRequestError) Unwrap() error {
	return e.Err
}
