// Package session holds the authenticated-identity state a browser keeps
// across requests. A session starts anonymous, adopts an identity on
// login, and is destroyed outright on logout so its identifier can never
// be replayed.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level carried by an authenticated session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Session is the server-side state for one browser. The Token is the
// opaque cookie value; it rotates on login so a pre-login cookie never
// refers to an authenticated record.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CSRFToken string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	destroyed bool
	modified  bool
}

// New creates an anonymous session with a fresh identifier and token,
// marked modified and ready to be saved.
func New(ttl time.Duration) (Session, error) {
	token, err := generateToken()
	if err != nil {
		return Session{}, errors.Join(ErrTokenGeneration, err)
	}

	now := time.Now()
	return Session{
		ID:        uuid.New(),
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
		modified:  true,
	}, nil
}

// Authenticate transitions the session from anonymous to authenticated,
// adopting the given identity. The token is rotated so the session
// cannot be fixated from before login.
func (s *Session) Authenticate(userID int64, username string, role Role) error {
	token, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}
	s.Token = token
	s.UserID = userID
	s.Username = username
	s.Role = role
	s.UpdatedAt = time.Now()
	s.modified = true
	return nil
}

// Logout marks the whole session record for destruction. The store entry
// is deleted on save, not merely cleared.
func (s *Session) Logout() {
	s.destroyed = true
	s.modified = true
}

// SetCSRFToken binds a new anti-forgery token to the session,
// superseding any previous one.
func (s *Session) SetCSRFToken(token string) {
	s.CSRFToken = token
	s.UpdatedAt = time.Now()
	s.modified = true
}

// Touch extends the expiry once the touch interval has elapsed, keeping
// store writes off the hot path for back-to-back requests.
func (s *Session) Touch(ttl, touchInterval time.Duration) {
	if time.Since(s.UpdatedAt) >= touchInterval {
		s.ExpiresAt = time.Now().Add(ttl)
		s.UpdatedAt = time.Now()
		s.modified = true
	}
}

// IsAuthenticated reports whether the session carries a user identity.
func (s Session) IsAuthenticated() bool {
	return s.UserID != 0 && !s.destroyed
}

// IsDestroyed reports whether the session is marked for deletion.
func (s Session) IsDestroyed() bool { return s.destroyed }

// IsModified reports whether the session needs saving.
func (s Session) IsModified() bool { return s.modified }

// IsExpired reports whether the session has passed its expiry.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// generateToken returns 32 bytes of cryptographic randomness encoded as
// unpadded base64url.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
