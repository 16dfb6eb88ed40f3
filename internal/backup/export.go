package backup

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/zkrizaj/hramba/internal/store"
)

// Export reads the whole inventory into a snapshot. Collections are
// ordered deterministically (names for locations, items and tags, time
// for the review log) so exporting twice without changes yields the
// same document.
func Export(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	snap := &Snapshot{
		Version:       CurrentVersion,
		Date:          time.Now().UTC(),
		Locations:     []Location{},
		Items:         []Item{},
		Tags:          []Tag{},
		ReviewHistory: []ReviewEntry{},
	}

	locations, err := store.ListLocations(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("exporting locations: %w", err)
	}
	for _, loc := range locations {
		dto := Location{
			ID:               loc.ID,
			Name:             loc.Name,
			IsReviewed:       loc.IsReviewed,
			LastReviewedDate: loc.LastReviewedAt,
			CreatedAt:        loc.CreatedAt,
		}
		if loc.ParentID != nil {
			dto.ParentID = *loc.ParentID
		}
		snap.Locations = append(snap.Locations, dto)
	}

	tags, err := store.ListTags(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("exporting tags: %w", err)
	}
	for _, tag := range tags {
		snap.Tags = append(snap.Tags, Tag{
			ID:        tag.ID,
			Name:      tag.Name,
			Color:     tag.Color,
			CreatedAt: tag.CreatedAt,
		})
	}

	items, err := store.ListItems(ctx, db, "", "", "", "")
	if err != nil {
		return nil, fmt.Errorf("exporting items: %w", err)
	}
	for _, item := range items {
		dto := Item{
			ID:              item.ID,
			Name:            item.Name,
			Description:     item.Description,
			Plan:            item.Plan,
			MoveDestination: item.MoveDestination,
			IsBook:          item.IsBook,
			BookTitle:       item.BookTitle,
			BookAuthor:      item.BookAuthor,
			CreatedAt:       item.CreatedAt,
		}
		if item.LocationID != nil {
			dto.LocationID = *item.LocationID
		}
		for _, tag := range item.Tags {
			dto.TagIDs = append(dto.TagIDs, tag.ID)
		}
		if item.PhotoMime != "" {
			photo, mime, err := store.ItemPhoto(ctx, db, item.ID)
			if err != nil {
				return nil, fmt.Errorf("exporting photo of %s: %w", item.ID, err)
			}
			dto.Photo = photo
			dto.PhotoMime = mime
		}
		snap.Items = append(snap.Items, dto)
	}

	entries, err := store.ListReviewLog(ctx, db, "", 0)
	if err != nil {
		return nil, fmt.Errorf("exporting review log: %w", err)
	}
	// The log lists newest first; a snapshot reads better, and imports
	// in the right insertion order, oldest first.
	slices.Reverse(entries)
	for _, entry := range entries {
		snap.ReviewHistory = append(snap.ReviewHistory, ReviewEntry{
			ID:          entry.ID,
			LocationID:  entry.LocationID,
			Action:      entry.Action,
			IsAutomatic: entry.Automatic,
			CreatedAt:   entry.CreatedAt,
		})
	}

	return snap, nil
}
