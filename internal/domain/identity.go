package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the canonical authentication aggregate. It carries only
// auth-relevant state, including the attempt counter and lock that gate
// login, so lockout decisions read and write a single record.
type Identity struct {
	UserID          uuid.UUID
	Email           string
	PasswordHash    string
	IsActive        bool
	FailedAttempts  int
	LockedUntil     *time.Time
	SecurityVersion int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Locked reports whether the identity is under an active lockout at now.
// A lock whose deadline has passed no longer counts; callers clear it lazily.
func (i Identity) Locked(now time.Time) bool {
	return i.LockedUntil != nil && i.LockedUntil.After(now)
}

// Session is the server-side record behind an opaque session id. The id is
// random and never derived from identity state, so possession of the cookie
// is the only proof.
type Session struct {
	SessionID string
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session's absolute deadline has passed at now.
// The boundary instant itself is already expired.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginAttempt records authentication outcomes for audit and login history.
type LoginAttempt struct {
	ID            int64
	UserID        *uuid.UUID
	Email         string
	AttemptAt     time.Time
	IPAddress     string
	Status        string
	FailureReason string
	UserAgent     string
}

const (
	AttemptStatusSuccess = "SUCCESS"
	AttemptStatusFailure = "FAILURE"
	AttemptStatusLocked  = "LOCKED"
)
