package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/driftline/auth-service/internal/domain"
	"github.com/driftline/auth-service/internal/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func createTestSession(t *testing.T, store *RedisSessionStore, userID uuid.UUID, ttl time.Duration) domain.Session {
	t.Helper()
	now := time.Now().UTC()
	session, err := store.Create(context.Background(), ports.SessionCreateParams{
		UserID:    userID,
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	t.Parallel()
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	userID := uuid.New()

	session := createTestSession(t, store, userID, 24*time.Hour)
	if len(session.SessionID) != 32 {
		t.Fatalf("expected 32 hex chars, got %q", session.SessionID)
	}

	loaded, err := store.Get(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.UserID != userID || loaded.IPAddress != "10.0.0.1" || loaded.UserAgent != "test-agent" {
		t.Fatalf("unexpected record %+v", loaded)
	}
	if !loaded.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("expected expiry %v, got %v", session.ExpiresAt, loaded.ExpiresAt)
	}

	if ttl := mr.TTL(sessionKeyPrefix + session.SessionID); ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("expected key ttl bound to session expiry, got %v", ttl)
	}
}

func TestSessionStoreCreateRejectsNonPositiveTTL(t *testing.T) {
	t.Parallel()
	_, client := newTestRedis(t)
	store := NewRedisSessionStore(client)

	now := time.Now().UTC()
	_, err := store.Create(context.Background(), ports.SessionCreateParams{
		UserID:    uuid.New(),
		CreatedAt: now,
		ExpiresAt: now,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSessionStoreGetUnknown(t *testing.T) {
	t.Parallel()
	_, client := newTestRedis(t)
	store := NewRedisSessionStore(client)

	_, err := store.Get(context.Background(), "0123456789abcdef0123456789abcdef")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	userID := uuid.New()

	session := createTestSession(t, store, userID, time.Hour)
	if err := store.Delete(context.Background(), session.SessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(context.Background(), session.SessionID); err != nil {
		t.Fatalf("repeat delete must succeed: %v", err)
	}

	if _, err := store.Get(context.Background(), session.SessionID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if members, _ := mr.SMembers(userSessionsPrefix + userID.String()); len(members) != 0 {
		t.Fatalf("expected empty user index, got %v", members)
	}
}

func TestSessionStoreListByUser(t *testing.T) {
	t.Parallel()
	_, client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	userID := uuid.New()
	otherID := uuid.New()

	first := createTestSession(t, store, userID, time.Hour)
	second := createTestSession(t, store, userID, time.Hour)
	createTestSession(t, store, otherID, time.Hour)

	sessions, err := store.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	found := map[string]bool{}
	for _, s := range sessions {
		found[s.SessionID] = true
		if s.UserID != userID {
			t.Fatalf("foreign session leaked into listing: %+v", s)
		}
	}
	if !found[first.SessionID] || !found[second.SessionID] {
		t.Fatalf("expected both sessions, got %v", found)
	}
}

func TestSessionStoreListDropsDanglingIndexEntries(t *testing.T) {
	t.Parallel()
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	userID := uuid.New()

	short := createTestSession(t, store, userID, time.Minute)
	keep := createTestSession(t, store, userID, time.Hour)

	// Let the short session's key expire while its index entry lingers.
	mr.FastForward(2 * time.Minute)

	sessions, err := store.ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != keep.SessionID {
		t.Fatalf("expected only the live session, got %+v", sessions)
	}

	members, _ := mr.SMembers(userSessionsPrefix + userID.String())
	for _, m := range members {
		if m == short.SessionID {
			t.Fatal("dangling index entry must be removed")
		}
	}
}

func TestSessionStoreTouchSlidesWithinAbsoluteExpiry(t *testing.T) {
	t.Parallel()
	mr, client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	userID := uuid.New()

	session := createTestSession(t, store, userID, 24*time.Hour)

	if err := store.Touch(context.Background(), session.SessionID, time.Hour); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL(sessionKeyPrefix + session.SessionID); ttl > time.Hour {
		t.Fatalf("expected ttl slid down to idle window, got %v", ttl)
	}

	// An idle window longer than the time left must be capped.
	if err := store.Touch(context.Background(), session.SessionID, 48*time.Hour); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL(sessionKeyPrefix + session.SessionID); ttl > 24*time.Hour {
		t.Fatalf("touch must never extend past absolute expiry, got %v", ttl)
	}
}

func TestSessionStoreTouchPurgesPastAbsoluteExpiry(t *testing.T) {
	t.Parallel()
	_, client := newTestRedis(t)
	store := NewRedisSessionStore(client)
	userID := uuid.New()

	// Record whose absolute deadline is already behind the wall clock but
	// whose key has not been garbage-collected yet.
	now := time.Now().UTC()
	session, err := store.Create(context.Background(), ports.SessionCreateParams{
		UserID:    userID,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Touch(context.Background(), session.SessionID, time.Hour); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found past absolute expiry, got %v", err)
	}
	if _, err := store.Get(context.Background(), session.SessionID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected record purged, got %v", err)
	}
}

func TestSessionStoreTouchUnknown(t *testing.T) {
	t.Parallel()
	_, client := newTestRedis(t)
	store := NewRedisSessionStore(client)

	err := store.Touch(context.Background(), "0123456789abcdef0123456789abcdef", time.Hour)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
