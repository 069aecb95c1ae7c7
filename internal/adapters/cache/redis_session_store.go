package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/driftline/auth-service/internal/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "auth:session:"
	userSessionsPrefix = "auth:user_sessions:"
)

// RedisSessionStore keeps opaque session records in Redis, one key per
// session plus a per-user set so sessions can be listed and revoked. The key
// TTL mirrors the record's absolute expiry, so Redis garbage-collects what
// the application would purge anyway.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates the session cache adapter.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// newSessionID returns a 128-bit random id, hex encoded. Ids carry no
// structure; possession of the cookie is the only proof.
func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *RedisSessionStore) Create(ctx context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return domain.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	session := domain.Session{
		SessionID: id,
		UserID:    params.UserID,
		IPAddress: params.IPAddress,
		UserAgent: params.UserAgent,
		CreatedAt: params.CreatedAt.UTC(),
		ExpiresAt: params.ExpiresAt.UTC(),
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return domain.Session{}, err
	}

	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl <= 0 {
		return domain.Session{}, fmt.Errorf("%w: session expiry must be after creation", domain.ErrInvalidInput)
	}

	userKey := userSessionsPrefix + params.UserID.String()
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKeyPrefix+id, raw, ttl)
		p.SAdd(ctx, userKey, id)
		p.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("%w: corrupt session record: %v", domain.ErrInternal, err)
	}
	return session, nil
}

// Touch slides the key TTL to idleTTL, capped so the session never outlives
// its absolute expiry. A touch past the absolute deadline purges the record.
func (s *RedisSessionStore) Touch(ctx context.Context, sessionID string, idleTTL time.Duration) error {
	session, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return err
	}
	var record domain.Session
	if err := json.Unmarshal(session, &record); err != nil {
		return fmt.Errorf("%w: corrupt session record: %v", domain.ErrInternal, err)
	}

	ttl := idleTTL
	if remaining := time.Until(record.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		_ = s.Delete(ctx, sessionID)
		return domain.ErrNotFound
	}
	return s.client.Expire(ctx, sessionKeyPrefix+sessionID, ttl).Err()
}

// Delete removes the session and its index entry. Deleting an id that does
// not exist succeeds, which makes logout replay-safe.
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	var record domain.Session
	userKey := ""
	if jsonErr := json.Unmarshal(raw, &record); jsonErr == nil {
		userKey = userSessionsPrefix + record.UserID.String()
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, sessionKeyPrefix+sessionID)
		if userKey != "" {
			p.SRem(ctx, userKey, sessionID)
		}
		return nil
	})
	return err
}

func (s *RedisSessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Session, error) {
	userKey := userSessionsPrefix + userID.String()
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		session, getErr := s.Get(ctx, id)
		if errors.Is(getErr, domain.ErrNotFound) {
			// Key expired; drop the dangling index entry.
			_ = s.client.SRem(ctx, userKey, id).Err()
			continue
		}
		if getErr != nil {
			return nil, getErr
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
