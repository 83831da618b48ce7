// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/Agar-OSS/agartex-service/pkg/errutil"
)

// UserService orchestrates registration.
type UserService struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewUserService creates a UserService with the default logger.
func NewUserService(users UserRepository, hasher PasswordHasher) (*UserService, error) {
	return NewUserServiceWithLogger(users, hasher, slog.Default())
}

// NewUserServiceWithLogger creates a UserService with an explicit logger.
func NewUserServiceWithLogger(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*UserService, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("logger is required")
	}
	return &UserService{users: users, hasher: hasher, logger: logger}, nil
}

// Register hashes the password and inserts the identity. Uniqueness is
// enforced by the store in the insert itself; there is no existence
// pre-check, so two concurrent registrations of the same email cannot race
// past each other - one of them gets ErrDuplicateEmail.
func (s *UserService) Register(ctx context.Context, credentials Credentials) error {
	email := NormalizeEmail(credentials.Email)

	digest, err := s.hasher.Hash(credentials.Password)
	if err != nil {
		errutil.LogError(s.logger, "password hashing failed", err)
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	if err := s.users.Insert(ctx, email, digest); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			s.logger.Warn("registration rejected, email taken", "email", email)
			return oops.Code("AUTH_DUPLICATE_EMAIL").Wrap(ErrDuplicateEmail)
		}
		errutil.LogError(s.logger, "user insert failed", err)
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	s.logger.Info("registration succeeded", "email", email)
	return nil
}
