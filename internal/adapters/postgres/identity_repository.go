package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/driftline/auth-service/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type identityRepository struct {
	db *gorm.DB
}

func (r *identityRepository) Create(ctx context.Context, params ports.CreateIdentityParams) (domain.Identity, error) {
	rec := identityModel{
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		IsActive:     true,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Identity{}, domain.ErrConflict
		}
		return domain.Identity{}, err
	}
	return toDomainIdentity(rec), nil
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (domain.Identity, error) {
	var rec identityModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, domain.ErrNotFound
		}
		return domain.Identity{}, err
	}
	return toDomainIdentity(rec), nil
}

func (r *identityRepository) GetByID(ctx context.Context, userID uuid.UUID) (domain.Identity, error) {
	var rec identityModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, domain.ErrNotFound
		}
		return domain.Identity{}, err
	}
	return toDomainIdentity(rec), nil
}

// UpdateSecurityState writes the attempt counter and lock under optimistic
// concurrency. The WHERE clause on security_version makes the read-modify-
// write safe across instances: a concurrent writer bumps the version first
// and this update then matches zero rows, reported as domain.ErrConflict so
// the caller re-reads and retries.
func (r *identityRepository) UpdateSecurityState(ctx context.Context, userID uuid.UUID, expectedVersion, failedAttempts int, lockedUntil *time.Time, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&identityModel{}).
		Where("user_id = ? AND security_version = ?", userID, expectedVersion).
		Updates(map[string]any{
			"failed_attempts":  failedAttempts,
			"locked_until":     lockedUntil,
			"security_version": gorm.Expr("security_version + 1"),
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
