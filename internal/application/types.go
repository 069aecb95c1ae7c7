package application

import (
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/google/uuid"
)

type RateLimitRule struct {
	Window time.Duration
	Max    int64
}

type Config struct {
	TokenTTL             time.Duration
	SessionTTL           time.Duration
	SessionIdleTTL       time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
	AuthRateLimit        RateLimitRule
	GeneralRateLimit     RateLimitRule
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID uuid.UUID `json:"user_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Transport-derived fields, populated by the handler rather than the body.
	PresentedSessionID string `json:"-"`
	IPAddress          string `json:"-"`
	UserAgent          string `json:"-"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expires_in"`
	UserID    uuid.UUID `json:"user_id"`

	// The session id travels only in the cookie, never in the body.
	SessionID        string    `json:"-"`
	SessionExpiresAt time.Time `json:"-"`
}

const (
	AuthMethodToken   = "token"
	AuthMethodSession = "session"
)

// AuthProof carries the credentials extracted from an incoming request.
// Token-borne proof wins over the session cookie when both are present.
type AuthProof struct {
	Token     string
	SessionID string
}

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	Identity  domain.Identity
	SessionID string
	Method    string
}

const (
	AdmissionClassAuth    = "auth"
	AdmissionClassGeneral = "general"
)

// AdmissionResult reports window state for rate-limit headers. RetryAfter is
// meaningful on denial: the time until the window resets.
type AdmissionResult struct {
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

type SessionItem struct {
	SessionID string    `json:"session_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsCurrent bool      `json:"is_current"`
}

type LoginHistoryQuery struct {
	Page   int
	Limit  int
	Days   int
	Status string
}

type LoginHistoryItem struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
	FailureReason string    `json:"failure_reason,omitempty"`
	IPAddress     string    `json:"ip_address"`
}

func toSessionItem(s domain.Session, currentSessionID string) SessionItem {
	return SessionItem{
		SessionID: s.SessionID,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		IsCurrent: s.SessionID == currentSessionID,
	}
}
