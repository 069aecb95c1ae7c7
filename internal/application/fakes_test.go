package application

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/driftline/auth-service/internal/ports"
	"github.com/google/uuid"
)

type fakeIdentities struct {
	mu      sync.Mutex
	byEmail map[string]domain.Identity
	byID    map[uuid.UUID]domain.Identity

	// forcedConflicts makes the next n UpdateSecurityState calls lose the
	// version race regardless of the version presented.
	forcedConflicts int
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{
		byEmail: map[string]domain.Identity{},
		byID:    map[uuid.UUID]domain.Identity{},
	}
}

func (f *fakeIdentities) Create(_ context.Context, params ports.CreateIdentityParams) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[params.Email]; exists {
		return domain.Identity{}, domain.ErrConflict
	}
	identity := domain.Identity{
		UserID:       uuid.New(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		IsActive:     true,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	f.byEmail[identity.Email] = identity
	f.byID[identity.UserID] = identity
	return identity, nil
}

func (f *fakeIdentities) GetByEmail(_ context.Context, email string) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.byEmail[email]
	if !ok {
		return domain.Identity{}, domain.ErrNotFound
	}
	return identity, nil
}

func (f *fakeIdentities) GetByID(_ context.Context, userID uuid.UUID) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.byID[userID]
	if !ok {
		return domain.Identity{}, domain.ErrNotFound
	}
	return identity, nil
}

func (f *fakeIdentities) UpdateSecurityState(_ context.Context, userID uuid.UUID, expectedVersion, failedAttempts int, lockedUntil *time.Time, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if f.forcedConflicts > 0 {
		f.forcedConflicts--
		return domain.ErrConflict
	}
	if identity.SecurityVersion != expectedVersion {
		return domain.ErrConflict
	}
	identity.FailedAttempts = failedAttempts
	identity.LockedUntil = lockedUntil
	identity.SecurityVersion++
	identity.UpdatedAt = now
	f.byID[userID] = identity
	f.byEmail[identity.Email] = identity
	return nil
}

// mutate applies fn to a stored identity outside the repository contract,
// for test setup like deactivating an account or corrupting a hash.
func (f *fakeIdentities) mutate(userID uuid.UUID, fn func(*domain.Identity)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity := f.byID[userID]
	fn(&identity)
	f.byID[userID] = identity
	f.byEmail[identity.Email] = identity
}

func (f *fakeIdentities) remove(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity := f.byID[userID]
	delete(f.byID, userID)
	delete(f.byEmail, identity.Email)
}

type fakeLoginAttempts struct {
	mu       sync.Mutex
	attempts []domain.LoginAttempt
}

func (f *fakeLoginAttempts) Insert(_ context.Context, attempt domain.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt.ID = int64(len(f.attempts) + 1)
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeLoginAttempts) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int, since *time.Time, status string) ([]domain.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]domain.LoginAttempt, 0)
	for i := len(f.attempts) - 1; i >= 0; i-- {
		a := f.attempts[i]
		if a.UserID == nil || *a.UserID != userID {
			continue
		}
		if since != nil && a.AttemptAt.Before(*since) {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		matched = append(matched, a)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeLoginAttempts) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.attempts))
	for _, a := range f.attempts {
		out = append(out, a.Status)
	}
	return out
}

type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]domain.Session
	seq  int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]domain.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	session := domain.Session{
		SessionID: "sess-" + strconv.Itoa(f.seq),
		UserID:    params.UserID,
		IPAddress: params.IPAddress,
		UserAgent: params.UserAgent,
		CreatedAt: params.CreatedAt,
		ExpiresAt: params.ExpiresAt,
	}
	f.byID[session.SessionID] = session
	return session, nil
}

func (f *fakeSessions) Get(_ context.Context, sessionID string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.byID[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return session, nil
}

func (f *fakeSessions) Touch(_ context.Context, sessionID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[sessionID]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, sessionID)
	return nil
}

func (f *fakeSessions) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Session, 0)
	for _, session := range f.byID {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	return out, nil
}

// seed inserts a session directly, simulating an id minted before login.
func (f *fakeSessions) seed(session domain.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[session.SessionID] = session
}

func (f *fakeSessions) has(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[sessionID]
	return ok
}

type rateWindow struct {
	count     int64
	expiresAt time.Time
}

type fakeRateLimits struct {
	mu      sync.Mutex
	windows map[string]rateWindow
	nowFn   func() time.Time
	failing bool
}

func (f *fakeRateLimits) Hit(_ context.Context, key string, window time.Duration) (ports.RateLimitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return ports.RateLimitResult{}, fmt.Errorf("%w: counter unavailable", domain.ErrInternal)
	}
	now := f.nowFn()
	w, ok := f.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = rateWindow{count: 0, expiresAt: now.Add(window)}
	}
	w.count++
	f.windows[key] = w
	return ports.RateLimitResult{Count: w.count, ResetAfter: w.expiresAt.Sub(now)}, nil
}

type fakeHasher struct {
	mu           sync.Mutex
	compareCalls int
}

func (f *fakeHasher) Hash(password string) (string, error) {
	return "hash:" + password, nil
}

func (f *fakeHasher) Compare(hash, password string) (bool, error) {
	f.mu.Lock()
	f.compareCalls++
	f.mu.Unlock()
	if len(hash) < 5 || hash[:5] != "hash:" {
		return false, fmt.Errorf("%w: stored password hash unreadable", domain.ErrInternal)
	}
	return hash == "hash:"+password, nil
}

func (f *fakeHasher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compareCalls
}

type fakeSigner struct {
	mu     sync.Mutex
	tokens map[string]ports.AuthClaims
	nowFn  func() time.Time
}

func (f *fakeSigner) Sign(claims ports.AuthClaims) (string, error) {
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", fmt.Errorf("%w: token ttl must be positive", domain.ErrInvalidInput)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	token := uuid.NewString()
	f.tokens[token] = claims
	return token, nil
}

func (f *fakeSigner) ParseAndValidate(token string) (ports.AuthClaims, error) {
	f.mu.Lock()
	claims, ok := f.tokens[token]
	f.mu.Unlock()
	if !ok {
		return ports.AuthClaims{}, domain.ErrTokenMalformed
	}
	if !f.nowFn().Before(claims.ExpiresAt) {
		return ports.AuthClaims{}, domain.ErrTokenExpired
	}
	return claims, nil
}
