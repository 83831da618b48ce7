// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

package auth

import "context"

// userContextKey is the key type for storing the authenticated user in a
// context.Context.
type userContextKey struct{}

// WithUser returns a new context with the authenticated user attached.
// The request gate calls this before forwarding to protected handlers.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// FromContext retrieves the authenticated user from the context, returning
// nil if no gate ran upstream.
func FromContext(ctx context.Context) *User {
	user, ok := ctx.Value(userContextKey{}).(*User)
	if !ok {
		return nil
	}
	return user
}

// MustFromContext retrieves the authenticated user, panicking if absent.
// Reaching this without a gate installed is a wiring bug, not client input.
func MustFromContext(ctx context.Context) *User {
	user := FromContext(ctx)
	if user == nil {
		panic("auth: user not found in context; is the session gate installed?")
	}
	return user
}
