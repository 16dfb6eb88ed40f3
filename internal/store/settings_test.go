package store

import (
	"context"
	"testing"

	"github.com/zkrizaj/hramba/internal/db"
)

func TestGetJWTSecretGeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if len(secret1) != 64 { // 32 bytes hex encoded
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected the same secret on the second call, got %q and %q", secret1, secret2)
	}
}

func TestPasswordHash(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	hash, err := PasswordHash(ctx, database)
	if err != nil {
		t.Fatalf("PasswordHash: %v", err)
	}
	if hash != "" {
		t.Fatalf("expected no hash before setup, got %q", hash)
	}

	if err := SetPasswordHash(ctx, database, "hash-one"); err != nil {
		t.Fatalf("SetPasswordHash: %v", err)
	}
	if hash, _ = PasswordHash(ctx, database); hash != "hash-one" {
		t.Errorf("expected 'hash-one', got %q", hash)
	}

	// Setting again overwrites.
	SetPasswordHash(ctx, database, "hash-two")
	if hash, _ = PasswordHash(ctx, database); hash != "hash-two" {
		t.Errorf("expected 'hash-two', got %q", hash)
	}
}
