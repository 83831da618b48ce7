// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/Agar-OSS/agartex-service/pkg/errutil"
)

// SessionService orchestrates login and session verification. It holds no
// state of its own beyond immutable configuration; every call round-trips to
// the injected stores.
type SessionService struct {
	sessions SessionRepository
	users    UserRepository
	hasher   PasswordHasher
	lifetime time.Duration
	logger   *slog.Logger
}

// NewSessionService creates a SessionService with the default logger.
// A non-positive lifetime falls back to DefaultSessionLifetime.
func NewSessionService(sessions SessionRepository, users UserRepository, hasher PasswordHasher, lifetime time.Duration) (*SessionService, error) {
	return NewSessionServiceWithLogger(sessions, users, hasher, lifetime, slog.Default())
}

// NewSessionServiceWithLogger creates a SessionService with an explicit logger.
func NewSessionServiceWithLogger(sessions SessionRepository, users UserRepository, hasher PasswordHasher, lifetime time.Duration, logger *slog.Logger) (*SessionService, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("sessions repository is required")
	}
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &SessionService{
		sessions: sessions,
		users:    users,
		hasher:   hasher,
		lifetime: lifetime,
		logger:   logger,
	}, nil
}

// Login verifies the credentials and mints a new session. An unknown email
// and a wrong password fail identically with ErrInvalidCredentials; any
// infrastructure fault is wrapped and logged instead. The session insert is
// attempted exactly once - token generation is randomized, so the caller may
// simply invoke Login again.
func (s *SessionService) Login(ctx context.Context, credentials Credentials) (*Session, error) {
	email := NormalizeEmail(credentials.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("login attempt failed", "email", email)
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		errutil.LogError(s.logger, "login user lookup failed", err)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(credentials.Password, user.PasswordHash)
	if err != nil {
		// Hash engine failure, not a mismatch. Logged and surfaced as an
		// infra fault so operators can tell it apart from guessing traffic,
		// while the HTTP layer still responds opaquely.
		errutil.LogError(s.logger, "password verification failed", err)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if !valid {
		s.logger.Warn("login attempt failed", "email", email)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	token, err := GenerateSessionToken()
	if err != nil {
		errutil.LogError(s.logger, "session token generation failed", err)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session := &Session{
		Token:     token,
		User:      *user,
		ExpiresAt: time.Now().Add(s.lifetime).Unix(),
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		errutil.LogError(s.logger, "session persist failed", err)
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "insert session").
			Wrap(err)
	}

	s.logger.Info("login succeeded", "email", email, "user_id", user.ID)
	return session, nil
}

// Verify resolves a session token to its identity. Expired and corrupted
// sessions are evicted on read (lazy eviction - there is no background
// sweep) and reported as ErrSessionMissing; a failed eviction leaves a
// dangling record behind and is reported as an infrastructure fault instead.
func (s *SessionService) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Wrap(ErrSessionMissing)
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Wrap(ErrSessionMissing)
		}
		errutil.LogError(s.logger, "session lookup failed", err)
		return nil, oops.Code("SESSION_VERIFY_FAILED").
			With("operation", "get session by token").
			Wrap(err)
	}

	if session.ExpiresInvalid() {
		s.logger.Warn("evicting session with corrupted expiry",
			"user_id", session.User.ID, "expires", session.ExpiresAt)
		return nil, s.evict(ctx, token, "SESSION_CORRUPT")
	}

	if session.IsExpiredAt(time.Now()) {
		return nil, s.evict(ctx, token, "SESSION_EXPIRED")
	}

	return &session.User, nil
}

// Logout deletes the session bound to the token. Unknown tokens are a no-op.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		errutil.LogError(s.logger, "logout session delete failed", err)
		return oops.Code("SESSION_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// evict removes a dead session and reports it as missing. When the delete
// itself fails the bad record is still in the store, so the fault is
// surfaced as infrastructure trouble rather than a clean "not authenticated".
func (s *SessionService) evict(ctx context.Context, token, code string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		errutil.LogError(s.logger, "session eviction failed", err)
		return oops.Code("SESSION_EVICT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return oops.Code(code).Wrap(ErrSessionMissing)
}
