package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// locations.parent_id is self-referential; cascade deletes are done
// explicitly by the store so the affected subtree can be reported back
// to the caller. review_log.location_id has no foreign key: ledger
// entries outlive the locations they describe.
const schema = `
CREATE TABLE IF NOT EXISTS locations (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    parent_id        TEXT REFERENCES locations(id),
    is_reviewed      INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at DATETIME,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_locations_parent ON locations(parent_id);

CREATE TABLE IF NOT EXISTS items (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    location_id      TEXT REFERENCES locations(id),
    plan             TEXT NOT NULL DEFAULT ''
                     CHECK (plan IN ('', 'keep', 'throw_away', 'sell', 'charity', 'move', 'fix')),
    move_destination TEXT NOT NULL DEFAULT '',
    is_book          INTEGER NOT NULL DEFAULT 0,
    book_title       TEXT NOT NULL DEFAULT '',
    book_author      TEXT NOT NULL DEFAULT '',
    photo            BLOB,
    photo_mime       TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_location ON items(location_id);
CREATE INDEX IF NOT EXISTS idx_items_plan ON items(plan);

CREATE TABLE IF NOT EXISTS tags (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    color      TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_name ON tags(name COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS item_tags (
    item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (item_id, tag_id)
);

CREATE TABLE IF NOT EXISTS review_log (
    id          TEXT PRIMARY KEY,
    location_id TEXT NOT NULL,
    action      TEXT NOT NULL CHECK (action IN ('reviewed', 'unreviewed')),
    automatic   INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_review_log_location ON review_log(location_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
