package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Kinds of move targets.
const (
	MoveKindLocation = "location"
	MoveKindItem     = "item"
)

// MoveRequest asks for location subtrees and items to be re-parented
// under one destination. An empty DestinationID moves locations to the
// top level and items out of the hierarchy entirely.
type MoveRequest struct {
	LocationIDs   []string `json:"location_ids"`
	ItemIDs       []string `json:"item_ids"`
	DestinationID string   `json:"destination_id"`
}

// MoveCheck is the verdict for a single move target.
type MoveCheck struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// checkMoves validates every target of a move against the current
// state. The shared destination must exist; individual targets that
// fail validation get a per-target verdict instead of an error.
func checkMoves(ctx context.Context, q querier, req MoveRequest) ([]MoveCheck, error) {
	tree, err := loadTree(ctx, q)
	if err != nil {
		return nil, err
	}
	if req.DestinationID != "" && tree.Get(req.DestinationID) == nil {
		return nil, ErrLocationNotFound
	}

	exists := make(map[string]bool, len(req.ItemIDs))
	if len(req.ItemIDs) > 0 {
		rows, err := q.QueryContext(ctx,
			`SELECT id FROM items WHERE id IN (`+placeholders(len(req.ItemIDs))+`)`,
			stringArgs(req.ItemIDs)...,
		)
		if err != nil {
			return nil, fmt.Errorf("checking move items: %w", err)
		}
		for rows.Next() {
			var itemID string
			if err := rows.Scan(&itemID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning item id: %w", err)
			}
			exists[itemID] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("checking move items: %w", err)
		}
	}

	checks := make([]MoveCheck, 0, len(req.LocationIDs)+len(req.ItemIDs))
	for _, locID := range req.LocationIDs {
		check := MoveCheck{ID: locID, Kind: MoveKindLocation, OK: true}
		if err := tree.ValidateMove(locID, req.DestinationID); err != nil {
			check.OK = false
			check.Reason = treeError(err).Error()
		}
		checks = append(checks, check)
	}
	for _, itemID := range req.ItemIDs {
		check := MoveCheck{ID: itemID, Kind: MoveKindItem, OK: true}
		if !exists[itemID] {
			check.OK = false
			check.Reason = ErrItemNotFound.Message
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// PreviewMove runs move validation without changing anything, so a
// caller can show what would happen before committing.
func PreviewMove(ctx context.Context, db *sql.DB, req MoveRequest) ([]MoveCheck, error) {
	return checkMoves(ctx, db, req)
}

// Move validates and applies a move in a single transaction. Targets
// that fail validation are skipped and reported in their verdict;
// targets that pass are re-parented. Items inside a moved subtree
// follow their location implicitly.
func Move(ctx context.Context, db *sql.DB, req MoveRequest) ([]MoveCheck, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	checks, err := checkMoves(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	var dest *string
	if req.DestinationID != "" {
		dest = &req.DestinationID
	}
	for _, check := range checks {
		if !check.OK {
			continue
		}
		switch check.Kind {
		case MoveKindLocation:
			_, err = tx.ExecContext(ctx, `UPDATE locations SET parent_id = ? WHERE id = ?`, dest, check.ID)
		case MoveKindItem:
			_, err = tx.ExecContext(ctx, `UPDATE items SET location_id = ? WHERE id = ?`, dest, check.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("moving %s %s: %w", check.Kind, check.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing move: %w", err)
	}

	return checks, nil
}
