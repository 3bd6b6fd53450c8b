// Package csrf issues and validates the per-session anti-forgery tokens
// that state-changing forms must round-trip. A token is valid only for
// the session that issued it; every form render binds a fresh token,
// superseding the previous one.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"garage/internal/session"
)

const tokenBytes = 32

// ErrTokenGeneration is returned when the random source fails.
var ErrTokenGeneration = errors.New("failed to generate csrf token")

// Generate binds a new high-entropy token to the session, overwriting
// any previous one, and returns it for embedding in the rendered form.
func Generate(sess *session.Session) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	sess.SetCSRFToken(token)
	return token, nil
}

// Validate compares the supplied token against the session's current one
// in constant time. It returns false, never an error, for a nil or
// destroyed session, an unset token, or a mismatch. Handlers must call
// it before any side effect of a POST, PUT, PATCH, or DELETE request.
func Validate(sess *session.Session, supplied string) bool {
	if sess == nil || sess.IsDestroyed() {
		return false
	}
	if sess.CSRFToken == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(supplied)) == 1
}
