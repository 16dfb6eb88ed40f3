// Package backup implements the snapshot codec: a complete, versioned
// JSON export of the inventory that can be imported back without loss.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Snapshot versions this codec understands. Version 1 predates book
// records and the fix plan; importing one simply leaves those fields
// empty. Version 2 is current.
const (
	MinVersion     = 1
	CurrentVersion = 2
)

// Snapshot is the on-disk shape of a full export.
type Snapshot struct {
	Version       int           `json:"version"`
	Date          time.Time     `json:"date"`
	Locations     []Location    `json:"locations"`
	Items         []Item        `json:"items"`
	Tags          []Tag         `json:"tags"`
	ReviewHistory []ReviewEntry `json:"reviewHistory"`
}

// Location is a snapshot row. ParentID is empty for top-level
// locations.
type Location struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	ParentID         string     `json:"parentId,omitempty"`
	IsReviewed       bool       `json:"isReviewed,omitempty"`
	LastReviewedDate *time.Time `json:"lastReviewedDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Item is a snapshot row. LocationID is empty for items outside the
// hierarchy. The photo is carried inline (base64 in JSON) so a
// snapshot really contains everything.
type Item struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	LocationID      string    `json:"locationId,omitempty"`
	Plan            string    `json:"plan,omitempty"`
	MoveDestination string    `json:"moveDestination,omitempty"`
	IsBook          bool      `json:"isBook,omitempty"`
	BookTitle       string    `json:"bookTitle,omitempty"`
	BookAuthor      string    `json:"bookAuthor,omitempty"`
	TagIDs          []string  `json:"tagIds,omitempty"`
	Photo           []byte    `json:"photo,omitempty"`
	PhotoMime       string    `json:"photoMime,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Tag is a snapshot row.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewEntry is a snapshot row. Entries are kept even when their
// location no longer exists, so LocationID may point at nothing.
type ReviewEntry struct {
	ID          string    `json:"id"`
	LocationID  string    `json:"locationId"`
	Action      string    `json:"action"`
	IsAutomatic bool      `json:"isAutomatic,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Encode writes a snapshot as indented JSON.
func Encode(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot from JSON and checks its version. The
// snapshot is not otherwise validated until import.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrCorrupt, err)
	}
	if snap.Version < MinVersion || snap.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	return &snap, nil
}
