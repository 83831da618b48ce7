// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

// Package web exposes the authentication service over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Agar-OSS/agartex-service/internal/auth"
	"github.com/Agar-OSS/agartex-service/internal/observability"
	"github.com/Agar-OSS/agartex-service/pkg/errutil"
	"github.com/samber/oops"
)

// SessionAPI is the session lifecycle surface the handlers need.
type SessionAPI interface {
	Login(ctx context.Context, credentials auth.Credentials) (*auth.Session, error)
	Verify(ctx context.Context, token string) (*auth.User, error)
	Logout(ctx context.Context, token string) error
}

// UserAPI is the registration surface the handlers need.
type UserAPI interface {
	Register(ctx context.Context, credentials auth.Credentials) error
}

// Handler serves the authentication endpoints.
type Handler struct {
	sessions     SessionAPI
	users        UserAPI
	cookieName   string
	cookieSecure bool
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewHandler creates the HTTP handler set. metrics may be nil when no
// observability server is running.
func NewHandler(sessions SessionAPI, users UserAPI, cookieName string, cookieSecure bool, metrics *observability.Metrics, logger *slog.Logger) (*Handler, error) {
	errBuilder := oops.Code("WEB_NIL_DEPENDENCY")
	if sessions == nil {
		return nil, errBuilder.Errorf("session service is required")
	}
	if users == nil {
		return nil, errBuilder.Errorf("user service is required")
	}
	if cookieName == "" {
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("cookie name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		sessions:     sessions,
		users:        users,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Routes builds the service mux, with /me behind the session gate.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", h.handleRegister)
	mux.HandleFunc("POST /sessions", h.handleLogin)
	mux.HandleFunc("DELETE /sessions", h.handleLogout)

	gate := auth.RequireSession(&meteredVerifier{inner: h.sessions, metrics: h.metrics}, h.cookieName)
	mux.Handle("GET /me", gate(http.HandlerFunc(h.handleMe)))

	return RequestLog(h.logger, mux)
}

// meteredVerifier counts session check outcomes around the gate.
type meteredVerifier struct {
	inner   SessionAPI
	metrics *observability.Metrics
}

func (v *meteredVerifier) Verify(ctx context.Context, token string) (*auth.User, error) {
	user, err := v.inner.Verify(ctx, token)
	if v.metrics != nil {
		switch {
		case err == nil:
			v.metrics.SessionChecksTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
		case errors.Is(err, auth.ErrSessionMissing):
			v.metrics.SessionChecksTotal.WithLabelValues(observability.OutcomeRejected).Inc()
		default:
			v.metrics.SessionChecksTotal.WithLabelValues(observability.OutcomeError).Inc()
		}
	}
	return user, err
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	credentials, ok := h.decodeCredentials(w, r)
	if !ok {
		h.countRegistration(observability.OutcomeRejected)
		return
	}

	err := h.users.Register(r.Context(), credentials)
	switch {
	case err == nil:
		h.countRegistration(observability.OutcomeSuccess)
		w.WriteHeader(http.StatusCreated)
	case errors.Is(err, auth.ErrDuplicateEmail):
		h.countRegistration(observability.OutcomeRejected)
		writeError(w, http.StatusConflict, "email already registered")
	default:
		h.countRegistration(observability.OutcomeError)
		errutil.LogError(h.logger, "registration failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	credentials, ok := h.decodeCredentials(w, r)
	if !ok {
		h.countLogin(observability.OutcomeRejected)
		return
	}

	session, err := h.sessions.Login(r.Context(), credentials)
	switch {
	case err == nil:
		h.countLogin(observability.OutcomeSuccess)
		SetSessionCookie(w, h.cookieName, session.Token, session.ExpiresAt, h.cookieSecure)
		w.WriteHeader(http.StatusCreated)
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.countLogin(observability.OutcomeRejected)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		h.countLogin(observability.OutcomeError)
		errutil.LogError(h.logger, "login failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookieName); err == nil {
		if logoutErr := h.sessions.Logout(r.Context(), cookie.Value); logoutErr != nil {
			errutil.LogError(h.logger, "logout failed", logoutErr)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	ClearSessionCookie(w, h.cookieName, h.cookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // response write error is not actionable
	json.NewEncoder(w).Encode(user)
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (auth.Credentials, bool) {
	var credentials auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return auth.Credentials{}, false
	}
	if err := auth.ValidateCredentials(credentials); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return auth.Credentials{}, false
	}
	return credentials, true
}

func (h *Handler) countLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countRegistration(outcome string) {
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response write error is not actionable
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
