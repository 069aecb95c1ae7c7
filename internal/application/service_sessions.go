package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/google/uuid"
)

// ListSessions returns the caller's live sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID, currentSessionID string) ([]SessionItem, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	now := s.nowFn()
	items := make([]SessionItem, 0, len(sessions))
	for _, session := range sessions {
		if session.Expired(now) {
			continue
		}
		items = append(items, toSessionItem(session, currentSessionID))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// RevokeSession destroys one of the caller's sessions by id. Revoking an
// unknown id succeeds; revoking someone else's session reports not found
// rather than confirming the id exists.
func (s *Service) RevokeSession(ctx context.Context, userID uuid.UUID, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}
	if session.UserID != userID {
		return domain.ErrNotFound
	}
	return s.sessions.Delete(ctx, sessionID)
}

const (
	historyDefaultLimit = 20
	historyMaxLimit     = 100
	historyDefaultDays  = 30
)

// LoginHistory pages through the caller's login audit trail.
func (s *Service) LoginHistory(ctx context.Context, userID uuid.UUID, query LoginHistoryQuery) ([]LoginHistoryItem, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = historyDefaultLimit
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	days := query.Days
	if days <= 0 {
		days = historyDefaultDays
	}

	since := s.nowFn().Add(-time.Duration(days) * 24 * time.Hour)
	attempts, err := s.loginAttempts.ListByUser(ctx, userID, limit, (page-1)*limit, &since, query.Status)
	if err != nil {
		return nil, fmt.Errorf("list login attempts: %w", err)
	}

	items := make([]LoginHistoryItem, 0, len(attempts))
	for _, attempt := range attempts {
		items = append(items, LoginHistoryItem{
			ID:            attempt.ID,
			Timestamp:     attempt.AttemptAt,
			Status:        attempt.Status,
			FailureReason: attempt.FailureReason,
			IPAddress:     attempt.IPAddress,
		})
	}
	return items, nil
}
