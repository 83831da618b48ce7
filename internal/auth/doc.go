// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agartex Contributors

// Package auth implements credential verification and server-tracked
// login sessions for the Agartex service.
//
// # Collaborators
//
// The engines are wired from three narrow, independently replaceable
// contracts:
//   - PasswordHasher - one-way password hashing and verification
//   - UserRepository - persistence of user identities
//   - SessionRepository - persistence of issued sessions
//
// PostgreSQL implementations of the repositories live in the postgres
// subpackage.
//
// # Engines
//
//   - SessionService - login (credential check, token mint, session persist)
//     and session verification with lazy expiry eviction
//   - UserService - registration with hashing and store-level duplicate
//     detection
//
// # Error kinds
//
// Each operation fails with a closed set of kinds, testable with errors.Is:
// ErrInvalidCredentials, ErrSessionMissing, ErrDuplicateEmail, ErrNotFound.
// Anything else is an infrastructure fault wrapped with an oops code; callers
// map those to 500-class responses, never to "unauthenticated".
package auth
