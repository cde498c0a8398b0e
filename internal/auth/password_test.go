package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid password", "validpassword123", nil},
		{"password too short", "short", ErrPasswordTooShort},
		{"password at minimum length", "12345678", nil},
		{"password too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"password at maximum length", strings.Repeat("a", 72), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, bcrypt.MinCost)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("HashPassword() returned empty hash for valid password")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Admin@123456", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := CheckPassword("Admin@123456", hash); err != nil {
		t.Errorf("CheckPassword() with correct password error = %v", err)
	}
	if err := CheckPassword("wrong-password", hash); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() with wrong password error = %v, want %v", err, ErrInvalidPassword)
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, _ := HashPassword("same-password", bcrypt.MinCost)
	b, _ := HashPassword("same-password", bcrypt.MinCost)
	if a == b {
		t.Error("two hashes of the same password must differ")
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("validpassword", 99)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestNewSecret(t *testing.T) {
	plain, hash, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret() error = %v", err)
	}
	if len(plain) != 64 {
		t.Errorf("len(plaintext) = %d, want 64", len(plain))
	}
	if hash != HashToken(plain) {
		t.Error("hash does not match HashToken(plaintext)")
	}
	if hash == plain {
		t.Error("hash must not equal the plaintext")
	}

	other, _, _ := NewSecret()
	if other == plain {
		t.Error("NewSecret() returned the same token twice")
	}
}

func TestRandomPassword(t *testing.T) {
	pw, err := RandomPassword()
	if err != nil {
		t.Fatalf("RandomPassword() error = %v", err)
	}
	if len(pw) < MinPasswordLength {
		t.Errorf("len = %d, shorter than MinPasswordLength", len(pw))
	}
}
