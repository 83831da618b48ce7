// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Agar-OSS/agartex-service/internal/auth"
	"github.com/Agar-OSS/agartex-service/internal/auth/mocks"
	"github.com/Agar-OSS/agartex-service/pkg/errutil"
)

func newUserService(t *testing.T, users *mocks.MockUserRepository, hasher *mocks.MockPasswordHasher) *auth.UserService {
	t.Helper()

	svc, err := auth.NewUserServiceWithLogger(users, hasher, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return svc
}

func TestNewUserServiceValidation(t *testing.T) {
	users := &mocks.MockUserRepository{}
	hasher := &mocks.MockPasswordHasher{}

	_, err := auth.NewUserService(nil, hasher)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_NIL_DEPENDENCY")

	_, err = auth.NewUserService(users, nil)
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	t.Run("hashes then inserts normalized email", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)

		hasher.On("Hash", "correcthorse").Return("digest", nil)
		users.On("Insert", mock.Anything, "ada@example.com", "digest").Return(nil)

		svc := newUserService(t, users, hasher)
		err := svc.Register(context.Background(), auth.Credentials{
			Email:    " Ada@Example.com ",
			Password: "correcthorse",
		})
		require.NoError(t, err)

		// No existence pre-check: uniqueness is resolved by the insert itself.
		users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email passes through", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)

		hasher.On("Hash", "correcthorse").Return("digest", nil)
		users.On("Insert", mock.Anything, "ada@example.com", "digest").
			Return(oops.Code("USER_DUPLICATE").Wrap(auth.ErrDuplicateEmail))

		svc := newUserService(t, users, hasher)
		err := svc.Register(context.Background(), auth.Credentials{
			Email:    "ada@example.com",
			Password: "correcthorse",
		})
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("hash failure aborts before the store", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)

		hasher.On("Hash", "correcthorse").Return("", oops.Errorf("cost out of range"))

		svc := newUserService(t, users, hasher)
		err := svc.Register(context.Background(), auth.Credentials{
			Email:    "ada@example.com",
			Password: "correcthorse",
		})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")
		users.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)

		hasher.On("Hash", "correcthorse").Return("digest", nil)
		users.On("Insert", mock.Anything, "ada@example.com", "digest").
			Return(oops.Errorf("connection refused"))

		svc := newUserService(t, users, hasher)
		err := svc.Register(context.Background(), auth.Credentials{
			Email:    "ada@example.com",
			Password: "correcthorse",
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrDuplicateEmail)
	})
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name    string
		creds   auth.Credentials
		wantErr bool
	}{
		{"valid", auth.Credentials{Email: "ada@example.com", Password: "correcthorse"}, false},
		{"mixed case email", auth.Credentials{Email: "Ada@Example.COM", Password: "correcthorse"}, false},
		{"no at sign", auth.Credentials{Email: "ada.example.com", Password: "correcthorse"}, true},
		{"no domain dot", auth.Credentials{Email: "ada@example", Password: "correcthorse"}, true},
		{"whitespace in email", auth.Credentials{Email: "ada smith@example.com", Password: "correcthorse"}, true},
		{"empty email", auth.Credentials{Email: "", Password: "correcthorse"}, true},
		{"short password", auth.Credentials{Email: "ada@example.com", Password: "short"}, true},
		{"empty password", auth.Credentials{Email: "ada@example.com", Password: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateCredentials(tt.creds)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", auth.NormalizeEmail(" Ada@Example.COM "))
	assert.Equal(t, "ada@example.com", auth.NormalizeEmail("ada@example.com"))
}
