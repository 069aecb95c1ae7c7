package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "StrongPass123!", false},
		{"valid minimal length", "Aa1!aaaa", false},
		{"too short", "Aa1!aaa", true},
		{"too long", "Aa1!" + strings.Repeat("x", 125), true},
		{"missing uppercase", "weakpass123!", true},
		{"missing lowercase", "WEAKPASS123!", true},
		{"missing digit", "NoDigitsHere!", true},
		{"missing symbol", "WeakPass1234", true},
		{"contains password", "MyPassword123!", true},
		{"contains qwerty", "Qwerty12345!", true},
		{"contains 123456", "Abc123456def!", true},
		{"contains letmein", "LetMeIn2024!x", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected invalid input, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected valid password, got %v", err)
			}
		})
	}
}
