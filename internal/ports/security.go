package ports

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHasher abstracts credential hashing. Compare distinguishes a plain
// mismatch (false, nil) from a corrupt or malformed stored hash, which is an
// infrastructure fault and comes back as an error.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

type AuthClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenSigner issues and verifies stateless signed assertions. Verification
// depends only on the token, the signing secret, and the clock; it never
// touches a store. ParseAndValidate reports failures through the domain token
// error kinds so callers can log the cause while responding generically.
type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
}
