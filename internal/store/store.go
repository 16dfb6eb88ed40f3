// Package store implements all persistence for the inventory: the
// location tree, items, tags, the review ledger and settings. Every
// function takes the database handle explicitly; mutations that touch
// more than one row run inside a single transaction.
package store

import (
	"context"
	"database/sql"
	"strings"
)

// querier is the subset of *sql.DB and *sql.Tx the store reads and
// writes through, so helpers can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// placeholders returns "?, ?, ..., ?" with n placeholders for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// stringArgs converts ids to the []any that QueryContext expects.
func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
