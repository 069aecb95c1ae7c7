package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/driftline/auth-service/internal/domain"
	"github.com/driftline/auth-service/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTSigner implements HS256 token signing/parsing under a single shared
// secret. The secret is held at adapter level so the application layer stays
// crypto-library agnostic.
//
// Parsing runs with zero leeway: a token is valid on [iat, exp), so a check
// at exactly exp fails closed.
type JWTSigner struct {
	secret []byte
}

// NewJWTSigner builds a signer from the configured secret.
func NewJWTSigner(secret string) (*JWTSigner, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt signing secret must be at least 16 bytes")
	}
	return &JWTSigner{secret: []byte(secret)}, nil
}

// NewEphemeralJWTSigner creates a random in-memory secret for local/dev use.
// This exists to unblock runtime startup when a static secret is intentionally
// absent; tokens do not survive a restart.
func NewEphemeralJWTSigner() (*JWTSigner, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return &JWTSigner{secret: secret}, nil
}

type authJWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) Sign(claims ports.AuthClaims) (string, error) {
	if !claims.ExpiresAt.After(claims.IssuedAt) {
		return "", fmt.Errorf("%w: token ttl must be positive", domain.ErrInvalidInput)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authJWTClaims{
		Email: claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(s.secret)
}

func (s *JWTSigner) ParseAndValidate(raw string) (ports.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &authJWTClaims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return ports.AuthClaims{}, mapJWTError(err)
	}
	claims, ok := parsed.Claims.(*authJWTClaims)
	if !ok || !parsed.Valid {
		return ports.AuthClaims{}, fmt.Errorf("%w: unexpected claims shape", domain.ErrTokenMalformed)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: missing time bounds", domain.ErrTokenMalformed)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ports.AuthClaims{}, fmt.Errorf("%w: parse subject: %v", domain.ErrTokenMalformed, err)
	}

	return ports.AuthClaims{
		UserID:    userID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

// mapJWTError folds library errors into the domain token kinds. The kinds
// stay distinguishable for logs and tests; the HTTP boundary collapses them.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", domain.ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
}
