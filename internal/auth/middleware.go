// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// SessionVerifier resolves a session token to its identity. Implemented by
// SessionService; the gate depends only on this.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// RequireSession returns middleware that gates protected routes on a valid
// session. The token is read from the named cookie; on success the resolved
// user is attached to the request context for downstream handlers.
//
// Rejections are split deliberately: an absent, unknown, or expired session
// is 401, while a store or hash infrastructure fault is 500 so operators can
// tell outages apart from genuine unauthenticated traffic. The gate decides
// authentication presence only, never authorization.
func RequireSession(verifier SessionVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			user, err := verifier.Verify(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, ErrSessionMissing) {
					writeJSONError(w, http.StatusUnauthorized, "not authenticated")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// CurrentUser extracts the gate-attached identity for a handler. A missing
// identity means the gate was not installed upstream of the route; that is a
// configuration error and fails loudly as a 500, never as an anonymous
// caller.
func CurrentUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	user := FromContext(r.Context())
	if user == nil {
		slog.Error("current user requested but session gate not installed",
			"path", r.URL.Path)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return user, true
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write failure means the client went away
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
