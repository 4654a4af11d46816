// Package auth implements credential verification and the signed session
// tokens the HTTP layer hands out at login.
package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown usernames, wrong passwords and
	// role mismatches alike, so a caller cannot probe which of the three
	// it hit.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrMalformedToken is returned for tokens that fail to parse or whose
	// signature does not check out.
	ErrMalformedToken = errors.New("malformed token")
	// ErrTokenExpired is returned for structurally valid tokens past their
	// expiry.
	ErrTokenExpired = errors.New("token expired")
)
