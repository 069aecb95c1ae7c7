package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/driftline/auth-service/internal/ports"
)

// Login validates credentials under the lockout policy and, on success,
// issues a fresh session plus a bearer token.
//
// Ordering is deliberate: the lockout check runs before any hash comparison,
// so a locked account pays no bcrypt cost and the submitted password is never
// evaluated. Any session id presented with the request is destroyed and never
// promoted, which defeats fixation.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, err
	}

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.recordAttempt(ctx, nil, email, req, domain.AttemptStatusFailure, "UNKNOWN_IDENTIFIER")
			return LoginResponse{}, domain.ErrInvalidCredentials
		}
		return LoginResponse{}, fmt.Errorf("load identity: %w", err)
	}

	now := s.nowFn()
	if identity.Locked(now) {
		appLogger().WarnContext(ctx, "login blocked by active lockout",
			"operation", "login",
			"outcome", "blocked",
			"user_id", identity.UserID,
			"locked_until", identity.LockedUntil,
		)
		s.recordAttempt(ctx, &identity.UserID, email, req, domain.AttemptStatusLocked, "ACCOUNT_LOCKED")
		return LoginResponse{}, domain.ErrAccountLocked
	}
	if identity.LockedUntil != nil {
		// Lock deadline has passed; clear it lazily and continue with a
		// fresh attempt budget.
		identity = s.clearSecurityState(ctx, identity, now)
	}

	if !identity.IsActive {
		s.recordAttempt(ctx, &identity.UserID, email, req, domain.AttemptStatusFailure, "ACCOUNT_INACTIVE")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	match, err := s.hasher.Compare(identity.PasswordHash, req.Password)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("compare credentials: %w", err)
	}
	if !match {
		s.registerFailure(ctx, identity, now)
		s.recordAttempt(ctx, &identity.UserID, email, req, domain.AttemptStatusFailure, "INVALID_PASSWORD")
		return LoginResponse{}, domain.ErrInvalidCredentials
	}

	if identity.FailedAttempts > 0 || identity.LockedUntil != nil {
		identity = s.clearSecurityState(ctx, identity, now)
	}

	if req.PresentedSessionID != "" {
		if err := s.sessions.Delete(ctx, req.PresentedSessionID); err != nil {
			appLogger().WarnContext(ctx, "failed to destroy pre-auth session",
				"operation", "login",
				"outcome", "warning",
				"error", err,
			)
		}
	}

	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		UserID:    identity.UserID,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		UserID:    identity.UserID,
		Email:     identity.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	s.recordAttempt(ctx, &identity.UserID, email, req, domain.AttemptStatusSuccess, "")

	return LoginResponse{
		Token:            token,
		ExpiresIn:        int64(s.cfg.TokenTTL.Seconds()),
		UserID:           identity.UserID,
		SessionID:        session.SessionID,
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout destroys the presented session. Destroying an absent or already
// destroyed session succeeds, so repeated logouts are harmless.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// Authenticate resolves proof into a principal. The token path is a pure
// signature-and-clock check followed by an identity lookup; the session path
// loads the server-side record, purging it when expired. A proof that
// verifies but names a missing or deactivated identity is rejected.
func (s *Service) Authenticate(ctx context.Context, proof AuthProof) (Principal, error) {
	now := s.nowFn()

	if proof.Token != "" {
		claims, err := s.tokenSigner.ParseAndValidate(proof.Token)
		if err != nil {
			appLogger().DebugContext(ctx, "token verification failed",
				"operation", "authenticate",
				"outcome", "rejected",
				"error", err,
			)
			return Principal{}, err
		}

		identity, err := s.lookupActiveIdentity(ctx, claims.UserID)
		if err != nil {
			return Principal{}, err
		}
		return Principal{Identity: identity, Method: AuthMethodToken}, nil
	}

	if proof.SessionID != "" {
		session, err := s.sessions.Get(ctx, proof.SessionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Principal{}, domain.ErrSessionExpired
			}
			return Principal{}, fmt.Errorf("load session: %w", err)
		}
		if session.Expired(now) {
			if err := s.sessions.Delete(ctx, session.SessionID); err != nil {
				appLogger().WarnContext(ctx, "failed to purge expired session",
					"operation", "authenticate",
					"outcome", "warning",
					"error", err,
				)
			}
			return Principal{}, domain.ErrSessionExpired
		}

		if err := s.sessions.Touch(ctx, session.SessionID, s.cfg.SessionIdleTTL); err != nil && !errors.Is(err, domain.ErrNotFound) {
			appLogger().WarnContext(ctx, "failed to refresh session activity",
				"operation", "authenticate",
				"outcome", "warning",
				"error", err,
			)
		}

		identity, err := s.lookupActiveIdentity(ctx, session.UserID)
		if err != nil {
			return Principal{}, err
		}
		return Principal{Identity: identity, SessionID: session.SessionID, Method: AuthMethodSession}, nil
	}

	return Principal{}, domain.ErrUnauthorized
}

// ValidateToken verifies a bearer token for internal callers and returns its
// claims once the subject is confirmed to still exist and be active.
func (s *Service) ValidateToken(ctx context.Context, raw string) (ports.AuthClaims, error) {
	claims, err := s.tokenSigner.ParseAndValidate(raw)
	if err != nil {
		return ports.AuthClaims{}, err
	}
	if _, err := s.lookupActiveIdentity(ctx, claims.UserID); err != nil {
		return ports.AuthClaims{}, err
	}
	return claims, nil
}
