// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
)

// DefaultSessionLifetime is the fixed session length used when configuration
// does not override it.
const DefaultSessionLifetime = 30 * 24 * time.Hour

// maxExpiresUnix bounds stored expiry instants (9999-12-31T23:59:59Z). A
// value outside [0, maxExpiresUnix] cannot be a legitimate expiry and marks
// the session record as corrupted.
const maxExpiresUnix = 253402300799

// Session binds a bearer token to an identity and an absolute expiry instant.
// The expiry is fixed at creation; there is no sliding renewal.
type Session struct {
	Token     string
	User      User
	ExpiresAt int64 // epoch seconds
}

// ExpiresInvalid reports whether the stored expiry is outside the
// representable range and the record must be treated as corrupted.
func (s *Session) ExpiresInvalid() bool {
	return s.ExpiresAt < 0 || s.ExpiresAt > maxExpiresUnix
}

// IsExpiredAt reports whether the session has lapsed at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return time.Unix(s.ExpiresAt, 0).Before(t)
}

// GenerateSessionToken mints an unguessable 256-bit bearer token: four
// independent 64-bit values from crypto/rand, concatenated as decimal digits.
// crypto/rand is safe for concurrent use, so simultaneous logins need no
// coordination.
func GenerateSessionToken() (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}

	var b strings.Builder
	for i := 0; i < len(raw); i += 8 {
		b.WriteString(strconv.FormatUint(binary.BigEndian.Uint64(raw[i:i+8]), 10))
	}
	return b.String(), nil
}

// SessionRepository manages session persistence. Sessions are owned by the
// store; the engine never caches one beyond a single operation.
type SessionRepository interface {
	// Insert stores a new session.
	Insert(ctx context.Context, session *Session) error

	// Get retrieves a session by token, with its owning user resolved.
	// Returns an error wrapping ErrNotFound if the token is unknown.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by token. Deleting an absent token is not an
	// error; concurrent evictions of the same expired session must both
	// succeed.
	Delete(ctx context.Context, token string) error
}
