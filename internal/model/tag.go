package model

import "time"

// Tag is a label items can be filed under. Tag names are unique
// case-insensitively; Color is an optional display hint.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated)
	ItemCount int `json:"item_count,omitempty"`
}
