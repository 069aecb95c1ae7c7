package postgres

import (
	"errors"
	"strings"

	"github.com/driftline/auth-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainIdentity(row identityModel) domain.Identity {
	return domain.Identity{
		UserID:          row.UserID,
		Email:           row.Email,
		PasswordHash:    row.PasswordHash,
		IsActive:        row.IsActive,
		FailedAttempts:  row.FailedAttempts,
		LockedUntil:     row.LockedUntil,
		SecurityVersion: row.SecurityVersion,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func toDomainLoginAttempt(row loginAttemptModel) domain.LoginAttempt {
	ip := ""
	if row.IPAddress != nil {
		ip = *row.IPAddress
	}
	return domain.LoginAttempt{
		ID:            row.ID,
		UserID:        row.UserID,
		Email:         row.Email,
		AttemptAt:     row.AttemptAt,
		IPAddress:     ip,
		Status:        row.Status,
		FailureReason: row.FailureReason,
		UserAgent:     row.UserAgent,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
