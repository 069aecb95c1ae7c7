package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/google/uuid"
)

// securityStateRetries bounds the CAS retry loop on attempt-counter writes.
const securityStateRetries = 3

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", "auth-service",
		"module", "application",
		"layer", "application",
	)
}

// registerFailure increments the attempt counter under optimistic
// concurrency, arming the lock once the threshold is reached. Bookkeeping
// failures are logged but never change the caller's credential outcome.
func (s *Service) registerFailure(ctx context.Context, identity domain.Identity, now time.Time) {
	current := identity
	for attempt := 0; attempt < securityStateRetries; attempt++ {
		failed := current.FailedAttempts + 1
		lockedUntil := current.LockedUntil
		if failed >= s.cfg.FailedLoginThreshold {
			deadline := now.Add(s.cfg.LockoutDuration).UTC()
			lockedUntil = &deadline
		}

		err := s.identities.UpdateSecurityState(ctx, current.UserID, current.SecurityVersion, failed, lockedUntil, now)
		if err == nil {
			if lockedUntil != nil && (current.LockedUntil == nil || !lockedUntil.Equal(*current.LockedUntil)) {
				appLogger().WarnContext(ctx, "account locked after repeated failures",
					"operation", "register_failure",
					"outcome", "locked",
					"user_id", current.UserID,
					"failed_attempts", failed,
					"locked_until", lockedUntil,
				)
			}
			return
		}
		if !errors.Is(err, domain.ErrConflict) {
			appLogger().ErrorContext(ctx, "failed to persist attempt counter",
				"operation", "register_failure",
				"outcome", "failure",
				"user_id", current.UserID,
				"error", err,
			)
			return
		}

		reread, readErr := s.identities.GetByID(ctx, current.UserID)
		if readErr != nil {
			appLogger().ErrorContext(ctx, "failed to reload identity after counter race",
				"operation", "register_failure",
				"outcome", "failure",
				"user_id", current.UserID,
				"error", readErr,
			)
			return
		}
		current = reread
	}
	appLogger().WarnContext(ctx, "attempt counter write lost repeated races",
		"operation", "register_failure",
		"outcome", "warning",
		"user_id", current.UserID,
	)
}

// clearSecurityState resets the attempt counter and lock. It returns the
// identity as it should look after the reset so callers can continue without
// another read; a lost race simply leaves the stored state to the winner.
func (s *Service) clearSecurityState(ctx context.Context, identity domain.Identity, now time.Time) domain.Identity {
	err := s.identities.UpdateSecurityState(ctx, identity.UserID, identity.SecurityVersion, 0, nil, now)
	if err != nil && !errors.Is(err, domain.ErrConflict) {
		appLogger().ErrorContext(ctx, "failed to clear attempt counter",
			"operation", "clear_security_state",
			"outcome", "failure",
			"user_id", identity.UserID,
			"error", err,
		)
	}
	identity.FailedAttempts = 0
	identity.LockedUntil = nil
	identity.SecurityVersion++
	return identity
}

// lookupActiveIdentity maps a verified proof's subject to a live identity.
// A missing or deactivated subject means the proof no longer authenticates.
func (s *Service) lookupActiveIdentity(ctx context.Context, userID uuid.UUID) (domain.Identity, error) {
	identity, err := s.identities.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, domain.ErrUnauthorized
		}
		return domain.Identity{}, fmt.Errorf("load identity: %w", err)
	}
	if !identity.IsActive {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return identity, nil
}

// recordAttempt appends to the login audit trail. Audit writes are best
// effort; a failure here must not mask the authentication outcome.
func (s *Service) recordAttempt(ctx context.Context, userID *uuid.UUID, email string, req LoginRequest, status, reason string) {
	if err := s.loginAttempts.Insert(ctx, domain.LoginAttempt{
		UserID:        userID,
		Email:         email,
		AttemptAt:     s.nowFn(),
		IPAddress:     req.IPAddress,
		Status:        status,
		FailureReason: reason,
		UserAgent:     req.UserAgent,
	}); err != nil {
		appLogger().WarnContext(ctx, "failed to persist login attempt",
			"operation", "record_attempt",
			"outcome", "failure",
			"status", status,
			"reason", reason,
			"error", err,
		)
	}
}

// normalizeEmail canonicalizes and validates email format before persistence/comparison.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}
