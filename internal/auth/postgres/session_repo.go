// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/Agar-OSS/agartex-service/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a new session.
func (r *SessionRepository) Insert(ctx context.Context, session *auth.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (session_id, user_id, expires)
		VALUES ($1, $2, $3)
	`, session.Token, session.User.ID, session.ExpiresAt)
	if err != nil {
		return oops.Code("SESSION_INSERT_FAILED").
			With("operation", "insert session").
			With("user_id", session.User.ID).
			Wrap(err)
	}
	return nil
}

// Get retrieves a session by token, joining the owning user so the caller
// gets a fully resolved identity in one round trip.
func (r *SessionRepository) Get(ctx context.Context, token string) (*auth.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT sessions.session_id, sessions.expires,
		       users.user_id, users.email, users.password_hash
		FROM sessions
		JOIN users ON sessions.user_id = users.user_id
		WHERE sessions.session_id = $1
	`, token)

	var session auth.Session
	err := row.Scan(
		&session.Token,
		&session.ExpiresAt,
		&session.User.ID,
		&session.User.Email,
		&session.User.PasswordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}
	return &session, nil
}

// Delete removes a session by token. Zero rows affected is fine: concurrent
// evictions of the same expired session must both succeed.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM sessions WHERE session_id = $1
	`, token)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
