// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package web

import (
	"net/http"
	"time"
)

// SetSessionCookie writes the session cookie for a freshly issued session.
// The cookie expiry mirrors the session expiry so browsers drop both at
// roughly the same time; the server still enforces expiry on every check.
func SetSessionCookie(w http.ResponseWriter, name, token string, expiresUnix int64, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Unix(expiresUnix, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
