package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != Subject {
		t.Errorf("expected subject %q, got %q", Subject, claims.Subject)
	}
	if claims.ID == "" {
		t.Error("expected a token id for revocation")
	}
}

func TestTokenIDsAreUnique(t *testing.T) {
	secret := "test-secret-key"

	first, _ := GenerateToken(secret)
	second, _ := GenerateToken(secret)

	a, err := ValidateToken(secret, first)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	b, err := ValidateToken(secret, second)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if a.ID == b.ID {
		t.Errorf("expected distinct token ids, both were %q", a.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1")

	if _, err := ValidateToken("secret2", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(TokenExpiry)

	// Should be within a few seconds.
	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
