package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether the identifier or the password failed.
	// The reason is to prevent account-enumeration side channels.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked signals temporary lockout after repeated failed attempts.
	// This supports brute-force mitigation and a predictable user-facing response.
	ErrAccountLocked  = errors.New("account locked")
	ErrSessionExpired = errors.New("session expired")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrConflict       = errors.New("conflict")
	ErrRateLimited    = errors.New("rate limited")
	// ErrInternal marks infrastructure faults (store timeouts, corrupt state).
	// Boundaries must never leak it to callers as an authentication outcome.
	ErrInternal = errors.New("internal error")

	// Token verification failure kinds. They stay distinguishable for logging
	// and tests, then collapse to a single generic response at the boundary.
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)
