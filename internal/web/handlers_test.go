// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Agar-OSS/agartex-service/internal/auth"
)

const testCookieName = "RSESSID"

type stubSessions struct {
	loginFn  func(ctx context.Context, credentials auth.Credentials) (*auth.Session, error)
	verifyFn func(ctx context.Context, token string) (*auth.User, error)
	logoutFn func(ctx context.Context, token string) error
}

func (s *stubSessions) Login(ctx context.Context, credentials auth.Credentials) (*auth.Session, error) {
	return s.loginFn(ctx, credentials)
}

func (s *stubSessions) Verify(ctx context.Context, token string) (*auth.User, error) {
	return s.verifyFn(ctx, token)
}

func (s *stubSessions) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

type stubUsers struct {
	registerFn func(ctx context.Context, credentials auth.Credentials) error
}

func (s *stubUsers) Register(ctx context.Context, credentials auth.Credentials) error {
	return s.registerFn(ctx, credentials)
}

func newTestHandler(t *testing.T, sessions SessionAPI, users UserAPI) http.Handler {
	t.Helper()

	if sessions == nil {
		sessions = &stubSessions{}
	}
	if users == nil {
		users = &stubUsers{}
	}

	h, err := NewHandler(sessions, users, testCookieName, false, nil, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return h.Routes()
}

func credentialsBody(t *testing.T, email, password string) *bytes.Buffer {
	t.Helper()

	body, err := json.Marshal(auth.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestNewHandlerRequiresDependencies(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	_, err := NewHandler(nil, &stubUsers{}, testCookieName, false, nil, logger)
	assert.Error(t, err)

	_, err = NewHandler(&stubSessions{}, nil, testCookieName, false, nil, logger)
	assert.Error(t, err)

	_, err = NewHandler(&stubSessions{}, &stubUsers{}, "", false, nil, logger)
	assert.Error(t, err)
}

func TestHandleRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		registerFn func(ctx context.Context, credentials auth.Credentials) error
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"email":"ada@example.com","password":"correcthorse"}`,
			registerFn: func(context.Context, auth.Credentials) error { return nil },
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate email",
			body: `{"email":"ada@example.com","password":"correcthorse"}`,
			registerFn: func(context.Context, auth.Credentials) error {
				return oops.Wrap(auth.ErrDuplicateEmail)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "malformed body",
			body:       `{"email":`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "invalid email",
			body:       `{"email":"not-an-email","password":"correcthorse"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "short password",
			body:       `{"email":"ada@example.com","password":"short"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "store failure",
			body: `{"email":"ada@example.com","password":"correcthorse"}`,
			registerFn: func(context.Context, auth.Credentials) error {
				return oops.Errorf("connection refused")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, nil, &stubUsers{registerFn: tt.registerFn})

			req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleLoginSuccessSetsCookie(t *testing.T) {
	user := auth.User{ID: 7, Email: "ada@example.com"}
	expiresAt := time.Now().Add(time.Hour).Unix()
	sessions := &stubSessions{
		loginFn: func(_ context.Context, credentials auth.Credentials) (*auth.Session, error) {
			assert.Equal(t, "ada@example.com", credentials.Email)
			return &auth.Session{Token: "11112222333344445555", User: user, ExpiresAt: expiresAt}, nil
		},
	}
	handler := newTestHandler(t, sessions, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", credentialsBody(t, "ada@example.com", "correcthorse"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, testCookieName, cookie.Name)
	assert.Equal(t, "11112222333344445555", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, expiresAt, cookie.Expires.Unix())
}

func TestHandleLoginErrors(t *testing.T) {
	tests := []struct {
		name       string
		loginErr   error
		wantStatus int
	}{
		{
			name:       "wrong password",
			loginErr:   oops.Wrap(auth.ErrInvalidCredentials),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown email",
			loginErr:   oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(auth.ErrInvalidCredentials),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "store failure",
			loginErr:   oops.Errorf("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &stubSessions{
				loginFn: func(context.Context, auth.Credentials) (*auth.Session, error) {
					return nil, tt.loginErr
				},
			}
			handler := newTestHandler(t, sessions, nil)

			req := httptest.NewRequest(http.MethodPost, "/sessions", credentialsBody(t, "ada@example.com", "correcthorse"))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestHandleLogout(t *testing.T) {
	t.Run("deletes session and clears cookie", func(t *testing.T) {
		var deleted string
		sessions := &stubSessions{
			logoutFn: func(_ context.Context, token string) error {
				deleted = token
				return nil
			},
		}
		handler := newTestHandler(t, sessions, nil)

		req := httptest.NewRequest(http.MethodDelete, "/sessions", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "sometoken"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "sometoken", deleted)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, testCookieName, cookies[0].Name)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("no cookie is a no-op", func(t *testing.T) {
		handler := newTestHandler(t, &stubSessions{}, nil)

		req := httptest.NewRequest(http.MethodDelete, "/sessions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		sessions := &stubSessions{
			logoutFn: func(context.Context, string) error {
				return oops.Errorf("connection refused")
			},
		}
		handler := newTestHandler(t, sessions, nil)

		req := httptest.NewRequest(http.MethodDelete, "/sessions", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "sometoken"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleMe(t *testing.T) {
	t.Run("returns identity", func(t *testing.T) {
		sessions := &stubSessions{
			verifyFn: func(_ context.Context, token string) (*auth.User, error) {
				require.Equal(t, "goodtoken", token)
				return &auth.User{ID: 7, Email: "ada@example.com"}, nil
			},
		}
		handler := newTestHandler(t, sessions, nil)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "goodtoken"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got auth.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int64(7), got.ID)
		assert.Equal(t, "ada@example.com", got.Email)
	})

	t.Run("no cookie", func(t *testing.T) {
		handler := newTestHandler(t, &stubSessions{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing session", func(t *testing.T) {
		sessions := &stubSessions{
			verifyFn: func(context.Context, string) (*auth.User, error) {
				return nil, oops.Code("SESSION_INVALID").Wrap(auth.ErrSessionMissing)
			},
		}
		handler := newTestHandler(t, sessions, nil)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "staletoken"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		sessions := &stubSessions{
			verifyFn: func(context.Context, string) (*auth.User, error) {
				return nil, oops.Errorf("connection refused")
			},
		}
		handler := newTestHandler(t, sessions, nil)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "sometoken"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRequestIDHeader(t *testing.T) {
	handler := newTestHandler(t, nil, &stubUsers{
		registerFn: func(context.Context, auth.Credentials) error { return nil },
	})

	req := httptest.NewRequest(http.MethodPost, "/users", credentialsBody(t, "ada@example.com", "correcthorse"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
