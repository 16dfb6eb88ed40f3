package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// GetJWTSecret retrieves the JWT signing secret, generating and
// persisting one on first use. INSERT OR IGNORE plus a re-read keeps
// concurrent first starts from racing each other.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('jwt_secret', ?)`,
		candidate,
	); err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	var secret string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'jwt_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying jwt secret: %w", err)
	}

	return secret, nil
}

// SetPasswordHash stores the owner's password hash.
func SetPasswordHash(ctx context.Context, db *sql.DB, hash string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('password_hash', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		hash,
	)
	if err != nil {
		return fmt.Errorf("storing password hash: %w", err)
	}
	return nil
}

// PasswordHash returns the owner's password hash, or "" if no password
// has been set yet.
func PasswordHash(ctx context.Context, db *sql.DB) (string, error) {
	var hash string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'password_hash'`,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying password hash: %w", err)
	}
	return hash, nil
}
