package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zkrizaj/hramba/internal/id"
	"github.com/zkrizaj/hramba/internal/model"
)

const locationCols = `id, name, parent_id, is_reviewed, last_reviewed_at, created_at`

// LoadTree reads all locations and indexes them as a tree. Mutating
// operations load their own copy inside the transaction they run in.
func LoadTree(ctx context.Context, db *sql.DB) (*model.Tree, error) {
	return loadTree(ctx, db)
}

func loadTree(ctx context.Context, q querier) (*model.Tree, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+locationCols+` FROM locations`)
	if err != nil {
		return nil, fmt.Errorf("loading location tree: %w", err)
	}
	defer rows.Close()

	locations, err := scanLocations(rows)
	if err != nil {
		return nil, err
	}
	return model.NewTree(locations), nil
}

func scanLocations(rows *sql.Rows) ([]model.Location, error) {
	var locations []model.Location
	for rows.Next() {
		var loc model.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.IsReviewed, &loc.LastReviewedAt, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// treeError converts tree validation failures to store errors.
func treeError(err error) error {
	switch {
	case errors.Is(err, model.ErrLocationNotFound):
		return ErrLocationNotFound
	case errors.Is(err, model.ErrWouldCycle):
		return ErrWouldCycle
	case errors.Is(err, model.ErrTooDeep):
		return ErrTooDeep
	}
	return err
}

// CreateLocation creates a location under the given parent ("" for a
// top-level location). The new location starts unreviewed.
func CreateLocation(ctx context.Context, db *sql.DB, name, parentID string) (*model.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	locID, err := id.New(id.Location)
	if err != nil {
		return nil, fmt.Errorf("creating location id: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tree, err := loadTree(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tree.ValidateCreate(parentID); err != nil {
		return nil, treeError(err)
	}

	var parent *string
	if parentID != "" {
		parent = &parentID
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO locations (id, name, parent_id) VALUES (?, ?, ?)`,
		locID, name, parent,
	); err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing location: %w", err)
	}

	return GetLocation(ctx, db, locID)
}

// GetLocation returns a location by id, or nil if it does not exist.
func GetLocation(ctx context.Context, db *sql.DB, locationID string) (*model.Location, error) {
	loc := &model.Location{}
	err := db.QueryRowContext(ctx,
		`SELECT `+locationCols+` FROM locations WHERE id = ?`, locationID,
	).Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.IsReviewed, &loc.LastReviewedAt, &loc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return loc, nil
}

// ListLocations returns all locations in name order, with item and
// child counts populated.
func ListLocations(ctx context.Context, db *sql.DB) ([]model.Location, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT l.id, l.name, l.parent_id, l.is_reviewed, l.last_reviewed_at, l.created_at,
		        (SELECT COUNT(*) FROM items i WHERE i.location_id = l.id) AS item_count,
		        (SELECT COUNT(*) FROM locations c WHERE c.parent_id = l.id) AS child_count
		 FROM locations l ORDER BY l.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var loc model.Location
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.ParentID, &loc.IsReviewed, &loc.LastReviewedAt,
			&loc.CreatedAt, &loc.ItemCount, &loc.ChildCount); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// RenameLocation changes a location's name.
func RenameLocation(ctx context.Context, db *sql.DB, locationID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	result, err := db.ExecContext(ctx,
		`UPDATE locations SET name = ? WHERE id = ?`, name, locationID,
	)
	if err != nil {
		return fmt.Errorf("renaming location: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// CascadeResult reports what a subtree delete removed.
type CascadeResult struct {
	LocationIDs []string `json:"location_ids"`
	ItemIDs     []string `json:"item_ids"`
}

// DeleteLocation removes a location, its whole subtree and every item
// stored anywhere in it, in one transaction. Review ledger entries for
// the removed locations are kept.
func DeleteLocation(ctx context.Context, db *sql.DB, locationID string) (*CascadeResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tree, err := loadTree(ctx, tx)
	if err != nil {
		return nil, err
	}
	if tree.Get(locationID) == nil {
		return nil, ErrLocationNotFound
	}
	locationIDs := tree.SubtreeIDs(locationID)

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM items WHERE location_id IN (`+placeholders(len(locationIDs))+`) ORDER BY name`,
		stringArgs(locationIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("finding items in subtree: %w", err)
	}
	var itemIDs []string
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item id: %w", err)
		}
		itemIDs = append(itemIDs, itemID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding items in subtree: %w", err)
	}

	if len(itemIDs) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM items WHERE id IN (`+placeholders(len(itemIDs))+`)`,
			stringArgs(itemIDs)...,
		); err != nil {
			return nil, fmt.Errorf("deleting items in subtree: %w", err)
		}
	}

	// Children before parents, so the self-referential foreign key
	// never sees a dangling parent.
	for i := len(locationIDs) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, locationIDs[i]); err != nil {
			return nil, fmt.Errorf("deleting location %s: %w", locationIDs[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing delete: %w", err)
	}

	return &CascadeResult{LocationIDs: locationIDs, ItemIDs: itemIDs}, nil
}
