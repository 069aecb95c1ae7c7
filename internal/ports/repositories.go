package ports

import (
	"context"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/google/uuid"
)

// CreateIdentityParams captures the inputs for identity creation.
type CreateIdentityParams struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// IdentityRepository defines persistence operations for authentication
// identities, including the attempt-counter fields that gate login.
//
// UpdateSecurityState is a compare-and-set: the write applies only when the
// stored security_version matches expectedVersion, and bumps the version on
// success. A lost race returns domain.ErrConflict so callers can re-read and
// retry; concurrent failed logins therefore never drop an increment.
type IdentityRepository interface {
	Create(ctx context.Context, params CreateIdentityParams) (domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (domain.Identity, error)
	GetByID(ctx context.Context, userID uuid.UUID) (domain.Identity, error)
	UpdateSecurityState(ctx context.Context, userID uuid.UUID, expectedVersion, failedAttempts int, lockedUntil *time.Time, now time.Time) error
}

// LoginAttemptRepository stores login outcomes used by the history endpoint.
type LoginAttemptRepository interface {
	Insert(ctx context.Context, attempt domain.LoginAttempt) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int, since *time.Time, status string) ([]domain.LoginAttempt, error)
}
