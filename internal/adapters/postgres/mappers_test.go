package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestToDomainIdentity(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lock := now.Add(24 * time.Hour)
	row := identityModel{
		UserID:          uuid.New(),
		Email:           "alice@example.com",
		PasswordHash:    "$2a$10$abcdefg",
		IsActive:        true,
		FailedAttempts:  3,
		LockedUntil:     &lock,
		SecurityVersion: 7,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	identity := toDomainIdentity(row)
	if identity.UserID != row.UserID || identity.Email != row.Email {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if identity.FailedAttempts != 3 || identity.SecurityVersion != 7 {
		t.Fatalf("security state lost in mapping: %+v", identity)
	}
	if identity.LockedUntil == nil || !identity.LockedUntil.Equal(lock) {
		t.Fatalf("lock deadline lost in mapping: %v", identity.LockedUntil)
	}
}

func TestToDomainLoginAttempt(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	ip := "10.0.0.1"
	row := loginAttemptModel{
		ID:            42,
		UserID:        &userID,
		Email:         "alice@example.com",
		AttemptAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		IPAddress:     &ip,
		Status:        "FAILURE",
		FailureReason: "INVALID_PASSWORD",
		UserAgent:     "test-agent",
	}

	attempt := toDomainLoginAttempt(row)
	if attempt.ID != 42 || attempt.IPAddress != "10.0.0.1" {
		t.Fatalf("unexpected attempt %+v", attempt)
	}

	row.IPAddress = nil
	if got := toDomainLoginAttempt(row); got.IPAddress != "" {
		t.Fatalf("nil ip must map to empty string, got %q", got.IPAddress)
	}
}

func TestNullableString(t *testing.T) {
	t.Parallel()
	if nullableString("") != nil {
		t.Fatal("empty string must map to nil")
	}
	if nullableString("   ") != nil {
		t.Fatal("blank string must map to nil")
	}
	if got := nullableString(" 10.0.0.1 "); got == nil || *got != "10.0.0.1" {
		t.Fatalf("expected trimmed value, got %v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()
	if !isUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatal("translated duplicate key must be recognized")
	}
	if isUniqueViolation(gorm.ErrRecordNotFound) {
		t.Fatal("not-found must not read as a duplicate")
	}
}
