package backup

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/zkrizaj/hramba/internal/model"
)

// ImportStats reports what an import wrote.
type ImportStats struct {
	Locations     int `json:"locations"`
	Items         int `json:"items"`
	Tags          int `json:"tags"`
	ReviewEntries int `json:"reviewEntries"`
}

// Import replaces the whole inventory with the snapshot's contents.
// The snapshot is validated up front and written in one transaction,
// so a bad snapshot never leaves the database partially overwritten.
// References to ids the snapshot doesn't contain are dropped rather
// than rejected: a location with an unknown parent becomes top-level,
// an item with an unknown location loses it, and unknown tag ids are
// skipped. Review entries keep their location id either way; the
// ledger holds entries for deleted locations too.
func Import(ctx context.Context, db *sql.DB, snap *Snapshot) (*ImportStats, error) {
	if snap.Version < MinVersion || snap.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	if err := validate(snap); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Clear in an order the foreign keys allow; parent links are
	// broken first so locations can be deleted in any order.
	clear := []string{
		`DELETE FROM item_tags`,
		`DELETE FROM items`,
		`DELETE FROM tags`,
		`DELETE FROM review_log`,
		`UPDATE locations SET parent_id = NULL`,
		`DELETE FROM locations`,
	}
	for _, stmt := range clear {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("clearing inventory: %w", err)
		}
	}

	// Tags first, they depend on nothing.
	knownTags := make(map[string]bool, len(snap.Tags))
	for _, tag := range snap.Tags {
		knownTags[tag.ID] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)`,
			tag.ID, tag.Name, tag.Color, tag.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("importing tag %s: %w", tag.ID, err)
		}
	}

	knownLocations := make(map[string]bool, len(snap.Locations))
	for _, loc := range snap.Locations {
		knownLocations[loc.ID] = true
	}

	// Locations go in without parents first; the snapshot's list is in
	// no particular order and the self-referencing foreign key only
	// lets a parent link point at an existing row.
	for _, loc := range snap.Locations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO locations (id, name, parent_id, is_reviewed, last_reviewed_at, created_at)
			 VALUES (?, ?, NULL, ?, ?, ?)`,
			loc.ID, loc.Name, loc.IsReviewed, loc.LastReviewedDate, loc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("importing location %s: %w", loc.ID, err)
		}
	}
	for _, loc := range snap.Locations {
		if loc.ParentID == "" || !knownLocations[loc.ParentID] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE locations SET parent_id = ? WHERE id = ?`,
			loc.ParentID, loc.ID,
		); err != nil {
			return nil, fmt.Errorf("linking location %s: %w", loc.ID, err)
		}
	}

	for _, item := range snap.Items {
		var locID *string
		if item.LocationID != "" && knownLocations[item.LocationID] {
			locID = &item.LocationID
		}
		moveDestination := item.MoveDestination
		if item.Plan != model.PlanMove {
			moveDestination = ""
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, name, description, location_id, plan, move_destination,
			                    is_book, book_title, book_author, photo, photo_mime, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.Name, item.Description, locID, item.Plan, moveDestination,
			item.IsBook, item.BookTitle, item.BookAuthor, item.Photo, item.PhotoMime, item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("importing item %s: %w", item.ID, err)
		}
		for _, tagID := range item.TagIDs {
			if !knownTags[tagID] {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)`,
				item.ID, tagID,
			); err != nil {
				return nil, fmt.Errorf("tagging item %s: %w", item.ID, err)
			}
		}
	}

	for _, entry := range snap.ReviewHistory {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO review_log (id, location_id, action, automatic, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			entry.ID, entry.LocationID, entry.Action, entry.IsAutomatic, entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("importing review entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	return &ImportStats{
		Locations:     len(snap.Locations),
		Items:         len(snap.Items),
		Tags:          len(snap.Tags),
		ReviewEntries: len(snap.ReviewHistory),
	}, nil
}

// validate checks everything that could make a snapshot unsafe to
// import. Dangling references are fine (they get dropped), but
// malformed rows, duplicate ids and an impossible location tree are
// not.
func validate(snap *Snapshot) error {
	locations := make(map[string]Location, len(snap.Locations))
	for _, loc := range snap.Locations {
		if loc.ID == "" {
			return fmt.Errorf("%w: location without id", ErrCorrupt)
		}
		if _, ok := locations[loc.ID]; ok {
			return fmt.Errorf("%w: duplicate location id %s", ErrCorrupt, loc.ID)
		}
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("%w: location %s has no name", ErrCorrupt, loc.ID)
		}
		locations[loc.ID] = loc
	}
	for _, loc := range snap.Locations {
		depth := 1
		cur := loc
		for steps := 0; cur.ParentID != ""; steps++ {
			if steps > len(snap.Locations) {
				return fmt.Errorf("%w: location %s is part of a parent cycle", ErrCorrupt, loc.ID)
			}
			parent, ok := locations[cur.ParentID]
			if !ok {
				// Unknown parent imports as top-level.
				break
			}
			depth++
			cur = parent
		}
		if depth > model.MaxDepth {
			return fmt.Errorf("%w: location %s is nested deeper than %d levels", ErrCorrupt, loc.ID, model.MaxDepth)
		}
	}

	tagIDs := make(map[string]bool, len(snap.Tags))
	tagNames := make(map[string]bool, len(snap.Tags))
	for _, tag := range snap.Tags {
		if tag.ID == "" {
			return fmt.Errorf("%w: tag without id", ErrCorrupt)
		}
		if tagIDs[tag.ID] {
			return fmt.Errorf("%w: duplicate tag id %s", ErrCorrupt, tag.ID)
		}
		tagIDs[tag.ID] = true
		if strings.TrimSpace(tag.Name) == "" {
			return fmt.Errorf("%w: tag %s has no name", ErrCorrupt, tag.ID)
		}
		name := strings.ToLower(tag.Name)
		if tagNames[name] {
			return fmt.Errorf("%w: duplicate tag name %q", ErrCorrupt, tag.Name)
		}
		tagNames[name] = true
	}

	itemIDs := make(map[string]bool, len(snap.Items))
	for _, item := range snap.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: item without id", ErrCorrupt)
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("%w: duplicate item id %s", ErrCorrupt, item.ID)
		}
		itemIDs[item.ID] = true
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: item %s has no name", ErrCorrupt, item.ID)
		}
		if item.Plan != "" && !model.ValidPlan(item.Plan) {
			return fmt.Errorf("%w: item %s has unknown plan %q", ErrCorrupt, item.ID, item.Plan)
		}
		if item.IsBook && (strings.TrimSpace(item.BookTitle) == "" || strings.TrimSpace(item.BookAuthor) == "") {
			return fmt.Errorf("%w: book record %s is missing its title or author", ErrCorrupt, item.ID)
		}
		if (len(item.Photo) > 0) != (item.PhotoMime != "") {
			return fmt.Errorf("%w: item %s has mismatched photo data and MIME type", ErrCorrupt, item.ID)
		}
	}

	entryIDs := make(map[string]bool, len(snap.ReviewHistory))
	for _, entry := range snap.ReviewHistory {
		if entry.ID == "" {
			return fmt.Errorf("%w: review entry without id", ErrCorrupt)
		}
		if entryIDs[entry.ID] {
			return fmt.Errorf("%w: duplicate review entry id %s", ErrCorrupt, entry.ID)
		}
		entryIDs[entry.ID] = true
		if entry.LocationID == "" {
			return fmt.Errorf("%w: review entry %s has no location", ErrCorrupt, entry.ID)
		}
		if entry.Action != model.ReviewActionReviewed && entry.Action != model.ReviewActionUnreviewed {
			return fmt.Errorf("%w: review entry %s has unknown action %q", ErrCorrupt, entry.ID, entry.Action)
		}
	}

	return nil
}
