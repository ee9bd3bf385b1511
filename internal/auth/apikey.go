// Package auth implements the two credential checks gating the API: a
// shared-secret comparison for machine-to-machine writes and a signed
// session token for authenticated reads.
package auth

import (
	"crypto/subtle"
	"errors"
)

var (
	ErrMissingAPIKey = errors.New("api key required")
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// APIKeyVerifier checks a request-supplied key against the configured
// shared secret.
type APIKeyVerifier struct {
	key []byte

	// disabled skips verification entirely. It is wired to an explicit
	// config flag that only the test harness sets, never to the general
	// environment mode.
	disabled bool
}

// NewAPIKeyVerifier creates a verifier for the configured shared secret.
func NewAPIKeyVerifier(key string, disabled bool) *APIKeyVerifier {
	return &APIKeyVerifier{key: []byte(key), disabled: disabled}
}

// Verify checks the supplied key. It distinguishes a missing key from a
// wrong one so the gate can log which case occurred; callers surface both
// as the same unauthorized status.
func (v *APIKeyVerifier) Verify(supplied string) error {
	if v.disabled {
		return nil
	}
	if supplied == "" {
		return ErrMissingAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(supplied), v.key) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}
