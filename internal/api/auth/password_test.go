package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantOK   bool
	}{
		{"letters and digits", "reading2026", true},
		{"exactly 8", "abcdefg1", true},
		{"unicode letters", "élève2026", true},

		{"too short", "abc1", false},
		{"no digit", "abcdefghij", false},
		{"no letter", "1234567890", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantOK && err != nil {
				t.Errorf("ValidatePassword(%q) = %v, want nil", tt.password, err)
			}
			if !tt.wantOK && err == nil {
				t.Errorf("ValidatePassword(%q) = nil, want error", tt.password)
			}
		})
	}
}

func TestValidatePassword_CollectsAllMessages(t *testing.T) {
	err := ValidatePassword("")

	var perr *PasswordValidationError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PasswordValidationError, got %T", err)
	}
	if len(perr.Messages) != 3 {
		t.Errorf("expected 3 messages, got %v", perr.Messages)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("reading2026", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "reading2026" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "reading2026") {
		t.Error("CheckPassword should accept the right password")
	}
	if CheckPassword(hash, "reading2027") {
		t.Error("CheckPassword should reject the wrong password")
	}
}
