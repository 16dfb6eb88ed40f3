// Package id generates the prefixed random identifiers used as primary
// keys throughout the store. Ids look like "itm-V1StGXR8_Z5jdHi6B-myT":
// a short entity prefix, a hyphen, and a 21 character URL-safe nanoid.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entity kinds that get ids.
const (
	Location = "loc"
	Item     = "itm"
	Tag      = "tag"
	Review   = "rev"
)

// New returns a fresh id with the given entity prefix.
func New(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generating nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
