package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestArgon2Hashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	ok, err := VerifyPassword("secret", hash)
	if err != nil || !ok {
		t.Fatalf("expected password to match, ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong", hash)
	if err != nil || ok {
		t.Fatalf("expected password mismatch, ok=%v err=%v", ok, err)
	}
}

func TestBcryptHashesVerify(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("legacy"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	ok, err := VerifyPassword("legacy", string(raw))
	if err != nil || !ok {
		t.Fatalf("expected bcrypt hash to match, ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("nope", string(raw))
	if err != nil || ok {
		t.Fatalf("expected bcrypt mismatch, ok=%v err=%v", ok, err)
	}
}

func TestUnknownHashFormat(t *testing.T) {
	if _, err := VerifyPassword("x", "plaintext"); !errors.Is(err, ErrUnknownHashFormat) {
		t.Fatalf("expected ErrUnknownHashFormat, got %v", err)
	}
}
