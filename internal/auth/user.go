// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth

import (
	"context"
	"regexp"
	"strings"

	"github.com/samber/oops"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8

// emailRegex is a pragmatic shape check: one @, no whitespace, a dot in the
// domain part. Full RFC 5322 validation is not attempted.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is a registered identity. The password hash is write-only from the
// perspective of callers above the engines: it is never logged and never
// serialized.
type User struct {
	ID           int64  `json:"user_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Credentials carries a login or registration attempt. It is transient:
// hashed or verified once, then discarded. Never persisted, never logged.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
// Uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials checks the shape of a registration or login payload.
func ValidateCredentials(c Credentials) error {
	if !emailRegex.MatchString(NormalizeEmail(c.Email)) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("malformed email address")
	}
	if len(c.Password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// UserRepository manages identity persistence.
type UserRepository interface {
	// GetByEmail retrieves a user by normalized email.
	// Returns an error wrapping ErrNotFound if no user has the email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Insert stores a new identity. Uniqueness is enforced by the store in
	// the same statement (no prior existence check); inserting an email that
	// is already taken returns an error wrapping ErrDuplicateEmail.
	Insert(ctx context.Context, email, passwordHash string) error
}
