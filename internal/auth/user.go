// Package auth owns the persisted credential record and its
// authentication logic: validated field setters, Argon2id password
// hashing, and email+password verification that never reveals whether an
// address exists.
package auth

import (
	"net/mail"
	"strings"

	"garage/internal/password"
	"garage/internal/session"
)

const (
	maxUsernameLen = 50
	minPasswordLen = 9
)

// User is the credential record. Fields are unexported so every mutation
// goes through a validated setter; in particular the password hash can
// only be produced by SetPassword, never assigned.
type User struct {
	id           int64
	username     string
	email        string
	passwordHash string
	role         session.Role
}

// ID returns the persisted identifier, or zero when the user has not
// been saved yet.
func (u *User) ID() int64 { return u.id }

func (u *User) Username() string { return u.username }

func (u *User) Email() string { return u.email }

func (u *User) Role() session.Role { return u.role }

// PasswordHash returns the stored Argon2id hash in PHC format.
func (u *User) PasswordHash() string { return u.passwordHash }

// SetUsername validates and sets the username: non-empty after trimming,
// at most 50 characters.
func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return newValidationError("username", "username must not be empty")
	}
	if len(username) > maxUsernameLen {
		return newValidationError("username", "username must be at most 50 characters")
	}
	u.username = username
	return nil
}

// SetEmail validates, normalizes (trim, lower-case), and sets the email.
func (u *User) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return newValidationError("email", "email must not be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return newValidationError("email", "email address is not valid")
	}
	u.email = email
	return nil
}

// SetPassword validates the plaintext and stores only its Argon2id hash.
// The plaintext is not retained beyond this call.
func (u *User) SetPassword(plaintext string) error {
	if len(plaintext) < minPasswordLen {
		return newValidationError("password", "password must be at least 9 characters")
	}
	hash, err := password.Hash(plaintext, password.DefaultParams())
	if err != nil {
		return err
	}
	u.passwordHash = hash
	return nil
}

// SetRole validates and sets the role.
func (u *User) SetRole(role session.Role) error {
	if !role.Valid() {
		return newValidationError("role", "role must be either user or admin")
	}
	u.role = role
	return nil
}
