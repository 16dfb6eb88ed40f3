package model

import "time"

// Review actions recorded in the ledger.
const (
	ReviewActionReviewed   = "reviewed"
	ReviewActionUnreviewed = "unreviewed"
)

// ReviewWindow is how long a location's reviewed mark lasts before
// the periodic sweep clears it again.
const ReviewWindow = 30 * 24 * time.Hour

// ReviewEntry is one record in the review ledger. Entries outlive the
// locations they describe, so LocationName can be empty for entries
// whose location has since been deleted.
type ReviewEntry struct {
	ID         string    `json:"id"`
	LocationID string    `json:"location_id"`
	Action     string    `json:"action"`
	Automatic  bool      `json:"automatic"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined fields (not always populated)
	LocationName string `json:"location_name,omitempty"`
}
