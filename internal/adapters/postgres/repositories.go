package postgres

import (
	"github.com/driftline/auth-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Identities    ports.IdentityRepository
	LoginAttempts ports.LoginAttemptRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Identities:    &identityRepository{db: db},
		LoginAttempts: &loginAttemptRepository{db: db},
	}
}
