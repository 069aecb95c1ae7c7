package ports

import (
	"context"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/google/uuid"
)

// SessionCreateParams captures metadata required to mint a session record.
// Network fields are stored for auditability.
type SessionCreateParams struct {
	UserID    uuid.UUID
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore manages opaque server-side sessions. Implementations generate
// the session id themselves from a CSPRNG; ids are never derived from prior
// sessions or identity state.
//
// Delete is idempotent: deleting an absent id is not an error. Touch slides
// the idle deadline forward but never past the record's absolute expiry.
type SessionStore interface {
	Create(ctx context.Context, params SessionCreateParams) (domain.Session, error)
	Get(ctx context.Context, sessionID string) (domain.Session, error)
	Touch(ctx context.Context, sessionID string, idleTTL time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Session, error)
}

// RateLimitResult is the window state after recording one hit.
type RateLimitResult struct {
	Count      int64
	ResetAfter time.Duration
}

// RateLimitStore counts hits per key within a fixed window. The first hit of
// a window starts it; ResetAfter is the time until the window expires, which
// callers convert into a Retry-After on denial.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, window time.Duration) (RateLimitResult, error)
}
