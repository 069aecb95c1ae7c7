package application

import (
	"context"
	"fmt"
	"time"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/driftline/auth-service/internal/ports"
)

type Service struct {
	cfg           Config
	identities    ports.IdentityRepository
	loginAttempts ports.LoginAttemptRepository
	sessions      ports.SessionStore
	rateLimits    ports.RateLimitStore
	hasher        ports.PasswordHasher
	tokenSigner   ports.TokenSigner
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Identities    ports.IdentityRepository
	LoginAttempts ports.LoginAttemptRepository
	Sessions      ports.SessionStore
	RateLimits    ports.RateLimitStore
	Hasher        ports.PasswordHasher
	TokenSigner   ports.TokenSigner
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:           deps.Config,
		identities:    deps.Identities,
		loginAttempts: deps.LoginAttempts,
		sessions:      deps.Sessions,
		rateLimits:    deps.RateLimits,
		hasher:        deps.Hasher,
		tokenSigner:   deps.TokenSigner,
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a local identity after syntactic email validation and
// password policy checks. A duplicate email surfaces as domain.ErrConflict.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return RegisterResponse{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return RegisterResponse{}, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("hash password: %w", err)
	}

	identity, err := s.identities.Create(ctx, ports.CreateIdentityParams{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		return RegisterResponse{}, err
	}
	return RegisterResponse{UserID: identity.UserID}, nil
}

// Admit records one hit for clientKey against the named admission class and
// decides whether the request may proceed. The decision depends only on the
// hit count, never on whether any credentials later prove correct. A counter
// store failure is an infrastructure fault, not a silent allow.
func (s *Service) Admit(ctx context.Context, class, clientKey string) (AdmissionResult, error) {
	rule := s.cfg.GeneralRateLimit
	if class == AdmissionClassAuth {
		rule = s.cfg.AuthRateLimit
	}

	hit, err := s.rateLimits.Hit(ctx, class+":"+clientKey, rule.Window)
	if err != nil {
		return AdmissionResult{}, fmt.Errorf("admission counter: %w", err)
	}

	remaining := rule.Max - hit.Count
	if remaining < 0 {
		remaining = 0
	}
	result := AdmissionResult{
		Limit:      rule.Max,
		Remaining:  remaining,
		RetryAfter: hit.ResetAfter,
	}
	if hit.Count > rule.Max {
		return result, domain.ErrRateLimited
	}
	return result, nil
}
