package model

import (
	"fmt"
	"time"
)

// Plans an item can be marked with. An empty plan means the item has
// not been decided on yet.
const (
	PlanKeep      = "keep"
	PlanThrowAway = "throw_away"
	PlanSell      = "sell"
	PlanCharity   = "charity"
	PlanMove      = "move"
	PlanFix       = "fix"
)

// Plans returns all valid plans in their canonical display order.
func Plans() []string {
	return []string{PlanKeep, PlanThrowAway, PlanSell, PlanCharity, PlanMove, PlanFix}
}

// ValidPlan reports whether plan is one of the known plans.
// The empty string is not a plan, it clears one.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanKeep, PlanThrowAway, PlanSell, PlanCharity, PlanMove, PlanFix:
		return true
	}
	return false
}

// Item is a physical thing stored at a location. An item normally
// lives at exactly one location; LocationID is nil only when the item
// was deliberately moved out of the hierarchy.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	LocationID  *string `json:"location_id,omitempty"`

	// Plan is the decision made about the item ("" if undecided).
	// MoveDestination is free-form text and only meaningful when
	// Plan is PlanMove.
	Plan            string `json:"plan,omitempty"`
	MoveDestination string `json:"move_destination,omitempty"`

	// Book fields. IsBook marks the item as a book record; the title
	// and author are kept separately so the display name can be
	// rebuilt from them.
	IsBook     bool   `json:"is_book,omitempty"`
	BookTitle  string `json:"book_title,omitempty"`
	BookAuthor string `json:"book_author,omitempty"`

	PhotoMime string    `json:"photo_mime,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated)
	Tags         []Tag    `json:"tags,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
	LocationPath []string `json:"location_path,omitempty"`
}

// BookName derives the display name for a book record. Book records
// always carry both a title and an author.
func BookName(title, author string) string {
	return fmt.Sprintf("%s by %s", title, author)
}
