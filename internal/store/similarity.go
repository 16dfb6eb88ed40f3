package store

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/zkrizaj/hramba/internal/model"
)

// DuplicateThreshold is the name similarity at which an existing item
// counts as a likely duplicate of a new one.
const DuplicateThreshold = 0.8

// Similarity scores how alike two names are, from 0 to 1. The
// comparison is case-insensitive and based on edit distance.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	distance := levenshteinDistance(a, b)
	maxLen := max(len(a), len(b))

	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// SimilarItems returns existing items whose names are close enough to
// name to look like duplicates, most similar first. Creating such an
// item is still allowed; this only feeds the warning shown beforehand.
func SimilarItems(ctx context.Context, db *sql.DB, name string) ([]model.Item, error) {
	items, err := ListItems(ctx, db, "", "", "", "")
	if err != nil {
		return nil, err
	}

	type scored struct {
		item  model.Item
		score float64
	}
	var matches []scored
	for _, item := range items {
		if score := Similarity(name, item.Name); score >= DuplicateThreshold {
			matches = append(matches, scored{item, score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	similar := make([]model.Item, len(matches))
	for i, m := range matches {
		similar[i] = m.item
	}
	return similar, nil
}
