package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zkrizaj/hramba/internal/id"
	"github.com/zkrizaj/hramba/internal/model"
)

// SetReviewed marks a location reviewed or unreviewed and records the
// change in the review ledger. Reviewing refreshes the review
// timestamp, even on an already reviewed location; unreviewing clears
// it. Both directions get a ledger entry.
func SetReviewed(ctx context.Context, db *sql.DB, locationID string, reviewed bool) (*model.Location, error) {
	entryID, err := id.New(id.Review)
	if err != nil {
		return nil, fmt.Errorf("creating review entry id: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var result sql.Result
	action := model.ReviewActionUnreviewed
	if reviewed {
		action = model.ReviewActionReviewed
		result, err = tx.ExecContext(ctx,
			`UPDATE locations SET is_reviewed = 1, last_reviewed_at = CURRENT_TIMESTAMP WHERE id = ?`,
			locationID,
		)
	} else {
		result, err = tx.ExecContext(ctx,
			`UPDATE locations SET is_reviewed = 0, last_reviewed_at = NULL WHERE id = ?`, locationID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("updating review mark: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrLocationNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO review_log (id, location_id, action, automatic) VALUES (?, ?, ?, 0)`,
		entryID, locationID, action,
	); err != nil {
		return nil, fmt.Errorf("recording review entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing review mark: %w", err)
	}

	return GetLocation(ctx, db, locationID)
}

// ListReviewLog returns ledger entries, newest first, optionally
// filtered by location and capped at limit (0 for all). Entries whose
// location has been deleted are kept and come back with an empty
// location name.
func ListReviewLog(ctx context.Context, db *sql.DB, locationID string, limit int) ([]model.ReviewEntry, error) {
	query := `SELECT r.id, r.location_id, r.action, r.automatic, r.created_at, l.name
	          FROM review_log r
	          LEFT JOIN locations l ON l.id = r.location_id`
	var args []any

	if locationID != "" {
		query += ` WHERE r.location_id = ?`
		args = append(args, locationID)
	}
	query += ` ORDER BY r.created_at DESC, r.rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing review log: %w", err)
	}
	defer rows.Close()

	var entries []model.ReviewEntry
	for rows.Next() {
		var entry model.ReviewEntry
		var locationName sql.NullString
		if err := rows.Scan(&entry.ID, &entry.LocationID, &entry.Action, &entry.Automatic,
			&entry.CreatedAt, &locationName); err != nil {
			return nil, fmt.Errorf("scanning review entry: %w", err)
		}
		entry.LocationName = locationName.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SweepReviews clears the reviewed mark on every location whose last
// review predates now by more than threshold, recording an automatic
// ledger entry per location. It returns the locations that were swept.
// A threshold of zero or less disables the sweep entirely.
func SweepReviews(ctx context.Context, db *sql.DB, now time.Time, threshold time.Duration) ([]model.Location, error) {
	if threshold <= 0 {
		return nil, nil
	}
	cutoff := now.Add(-threshold)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT `+locationCols+` FROM locations WHERE is_reviewed = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("finding reviewed locations: %w", err)
	}
	reviewed, err := scanLocations(rows)
	if err != nil {
		return nil, err
	}

	var swept []model.Location
	for _, loc := range reviewed {
		// A reviewed mark without a timestamp cannot prove recency,
		// so it is swept as well.
		if loc.LastReviewedAt != nil && !loc.LastReviewedAt.Before(cutoff) {
			continue
		}

		entryID, err := id.New(id.Review)
		if err != nil {
			return nil, fmt.Errorf("creating review entry id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE locations SET is_reviewed = 0, last_reviewed_at = NULL WHERE id = ?`, loc.ID,
		); err != nil {
			return nil, fmt.Errorf("sweeping location %s: %w", loc.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO review_log (id, location_id, action, automatic) VALUES (?, ?, ?, 1)`,
			entryID, loc.ID, model.ReviewActionUnreviewed,
		); err != nil {
			return nil, fmt.Errorf("recording sweep entry: %w", err)
		}

		loc.IsReviewed = false
		loc.LastReviewedAt = nil
		swept = append(swept, loc)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sweep: %w", err)
	}

	return swept, nil
}
