package model

import "time"

// MaxDepth is the deepest a location may sit in the hierarchy.
// A root location has depth 1, so a chain of MaxDepth locations
// is the longest the tree allows.
const MaxDepth = 15

// Location is a node in the storage hierarchy: a room, a cupboard,
// a shelf, a box. Locations nest through ParentID, which is nil for
// top-level locations.
type Location struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ParentID       *string    `json:"parent_id,omitempty"`
	IsReviewed     bool       `json:"is_reviewed"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Joined fields (not always populated)
	ItemCount  int      `json:"item_count,omitempty"`
	ChildCount int      `json:"child_count,omitempty"`
	Path       []string `json:"path,omitempty"`
}
