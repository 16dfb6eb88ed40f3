package store

import (
	"context"
	"testing"

	"github.com/zkrizaj/hramba/internal/db"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Hammer", "Hammer", 1.0},
		{"Hammer", "hammer", 1.0},
		{"hammer", "hammers", 1.0 - 1.0/7.0},
		{"hammer", "", 0.0},
		{"", "", 1.0},
		{"abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"drill", "drills"},
		{"Wine Rack", "wine racks"},
		{"ladder", "adder"},
	}
	for _, p := range pairs {
		if ab, ba := Similarity(p[0], p[1]), Similarity(p[1], p[0]); ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	shelf, _ := CreateLocation(ctx, database, "Shelf", "")
	hammer, _ := CreateItem(ctx, database, "Hammer", "", shelf.ID)
	CreateItem(ctx, database, "Claw Hammer", "", shelf.ID)
	CreateItem(ctx, database, "Wrench", "", shelf.ID)

	// "hammers" is one edit from "hammer", well above the threshold,
	// but too far from everything else.
	similar, err := SimilarItems(ctx, database, "hammers")
	if err != nil {
		t.Fatalf("SimilarItems: %v", err)
	}
	if len(similar) != 1 || similar[0].ID != hammer.ID {
		t.Errorf("expected just the Hammer, got %+v", similar)
	}

	none, _ := SimilarItems(ctx, database, "Garden Hose")
	if len(none) != 0 {
		t.Errorf("expected no matches, got %+v", none)
	}
}
