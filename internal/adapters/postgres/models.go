package postgres

import (
	"time"

	"github.com/google/uuid"
)

type identityModel struct {
	UserID          uuid.UUID  `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string     `gorm:"column:email"`
	PasswordHash    string     `gorm:"column:password_hash"`
	IsActive        bool       `gorm:"column:is_active"`
	FailedAttempts  int        `gorm:"column:failed_attempts"`
	LockedUntil     *time.Time `gorm:"column:locked_until"`
	SecurityVersion int        `gorm:"column:security_version"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (identityModel) TableName() string { return "users" }

type loginAttemptModel struct {
	ID            int64      `gorm:"column:id;primaryKey"`
	UserID        *uuid.UUID `gorm:"column:user_id"`
	Email         string     `gorm:"column:email"`
	AttemptAt     time.Time  `gorm:"column:attempt_at"`
	IPAddress     *string    `gorm:"column:ip_address"`
	Status        string     `gorm:"column:status"`
	FailureReason string     `gorm:"column:failure_reason"`
	UserAgent     string     `gorm:"column:user_agent"`
}

func (loginAttemptModel) TableName() string { return "login_attempts" }
