package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/zkrizaj/hramba/internal/id"
	"github.com/zkrizaj/hramba/internal/model"
)

// CreateTag creates a tag. Tag names are unique case-insensitively.
func CreateTag(ctx context.Context, db *sql.DB, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	tagID, err := id.New(id.Tag)
	if err != nil {
		return nil, fmt.Errorf("creating tag id: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO tags (id, name, color) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		tagID, name, color,
	)
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrDuplicateTag
	}

	return GetTag(ctx, db, tagID)
}

// GetTag returns a tag by id, or nil if it does not exist.
func GetTag(ctx context.Context, db *sql.DB, tagID string) (*model.Tag, error) {
	tag := &model.Tag{}
	err := db.QueryRowContext(ctx,
		`SELECT t.id, t.name, t.color, t.created_at,
		        (SELECT COUNT(*) FROM item_tags it WHERE it.tag_id = t.id) AS item_count
		 FROM tags t WHERE t.id = ?`, tagID,
	).Scan(&tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt, &tag.ItemCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag: %w", err)
	}
	return tag, nil
}

// ListTags returns all tags in name order with their item counts.
func ListTags(ctx context.Context, db *sql.DB) ([]model.Tag, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.name, t.color, t.created_at,
		        (SELECT COUNT(*) FROM item_tags it WHERE it.tag_id = t.id) AS item_count
		 FROM tags t ORDER BY t.name COLLATE NOCASE`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt, &tag.ItemCount); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// UpdateTag changes a tag's name and color. Renaming onto another
// tag's name (in any letter case) is rejected.
func UpdateTag(ctx context.Context, db *sql.DB, tagID, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	var taken int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tags WHERE name = ? COLLATE NOCASE AND id != ?`,
		name, tagID,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("checking tag name: %w", err)
	}
	if taken > 0 {
		return ErrDuplicateTag
	}

	result, err := db.ExecContext(ctx,
		`UPDATE tags SET name = ?, color = ? WHERE id = ?`, name, color, tagID,
	)
	if err != nil {
		return fmt.Errorf("updating tag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrTagNotFound
	}
	return nil
}

// DeleteTag removes a tag and detaches it from every item.
func DeleteTag(ctx context.Context, db *sql.DB, tagID string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrTagNotFound
	}
	return nil
}

// RetagItem replaces an item's tag set in one transaction. Every tag
// must exist; duplicates in the list are collapsed.
func RetagItem(ctx context.Context, db *sql.DB, itemID string, tagIDs []string) error {
	slices.Sort(tagIDs)
	tagIDs = slices.Compact(tagIDs)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE id = ?`, itemID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if exists == 0 {
		return ErrItemNotFound
	}

	if len(tagIDs) > 0 {
		var known int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tags WHERE id IN (`+placeholders(len(tagIDs))+`)`,
			stringArgs(tagIDs)...,
		).Scan(&known)
		if err != nil {
			return fmt.Errorf("checking tags: %w", err)
		}
		if known != len(tagIDs) {
			return ErrTagNotFound
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("clearing item tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO item_tags (item_id, tag_id) VALUES (?, ?)`, itemID, tagID,
		); err != nil {
			return fmt.Errorf("tagging item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing retag: %w", err)
	}
	return nil
}
