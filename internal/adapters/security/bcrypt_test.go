package security

import (
	"errors"
	"testing"

	"github.com/driftline/auth-service/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	t.Parallel()
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("StrongPass123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "StrongPass123!" {
		t.Fatal("hash must not equal the plaintext")
	}

	match, err := hasher.Compare(hash, "StrongPass123!")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !match {
		t.Fatal("expected match for correct password")
	}
}

func TestBcryptHasherMismatchIsNotAnError(t *testing.T) {
	t.Parallel()
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("StrongPass123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	match, err := hasher.Compare(hash, "WrongPass123!")
	if err != nil {
		t.Fatalf("mismatch must be a clean false, got %v", err)
	}
	if match {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestBcryptHasherUnreadableHash(t *testing.T) {
	t.Parallel()
	hasher := NewBcryptHasher(bcrypt.MinCost)

	match, err := hasher.Compare("not-a-bcrypt-hash", "StrongPass123!")
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected infrastructure fault, got %v", err)
	}
	if match {
		t.Fatal("unreadable hash must never match")
	}
}

func TestBcryptHasherDefaultCost(t *testing.T) {
	t.Parallel()
	hasher := NewBcryptHasher(0)
	if hasher.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost fallback, got %d", hasher.cost)
	}
}
