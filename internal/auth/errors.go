// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth

import "errors"

// Sentinel errors forming the closed error kinds of the package. Service and
// repository errors wrap these so callers can classify with errors.Is while
// the oops wrapper carries the structured context.
var (
	// ErrNotFound is returned by repositories when a requested record does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when registering an email address that
	// already has an identity.
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrInvalidCredentials is returned by login for both an unknown email
	// and a wrong password. The two cases are deliberately indistinguishable
	// to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionMissing is returned by session verification when the token
	// is absent, unknown, expired, or bound to a corrupted record. All of
	// these present identically as "not authenticated".
	ErrSessionMissing = errors.New("session missing")
)
