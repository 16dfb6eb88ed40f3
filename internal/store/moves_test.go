package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/zkrizaj/hramba/internal/db"
	"github.com/zkrizaj/hramba/internal/model"
)

// createChain builds a parent chain of n locations and returns their ids.
func createChain(t *testing.T, database *sql.DB, n int) []string {
	t.Helper()
	ctx := context.Background()

	ids := make([]string, 0, n)
	parent := ""
	for i := 1; i <= n; i++ {
		loc, err := CreateLocation(ctx, database, fmt.Sprintf("Level %02d", i), parent)
		if err != nil {
			t.Fatalf("creating level %d: %v", i, err)
		}
		ids = append(ids, loc.ID)
		parent = loc.ID
	}
	return ids
}

func TestMoveLocation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	house, _ := CreateLocation(ctx, database, "House", "")
	garage, _ := CreateLocation(ctx, database, "Garage", house.ID)
	shelf, _ := CreateLocation(ctx, database, "Shelf", garage.ID)
	shed, _ := CreateLocation(ctx, database, "Shed", "")
	hammer, _ := CreateItem(ctx, database, "Hammer", "", shelf.ID)

	checks, err := Move(ctx, database, MoveRequest{LocationIDs: []string{shelf.ID}, DestinationID: shed.ID})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if len(checks) != 1 || !checks[0].OK {
		t.Fatalf("expected one passing check, got %+v", checks)
	}

	moved, _ := GetLocation(ctx, database, shelf.ID)
	if moved.ParentID == nil || *moved.ParentID != shed.ID {
		t.Errorf("expected Shelf under Shed, got %v", moved.ParentID)
	}

	// The item rides along with its location.
	item, _ := GetItem(ctx, database, hammer.ID)
	if item.LocationID == nil || *item.LocationID != shelf.ID {
		t.Errorf("expected Hammer still on the Shelf, got %v", item.LocationID)
	}
}

func TestMoveRejectsCycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	garage, _ := CreateLocation(ctx, database, "Garage", "")
	shelf, _ := CreateLocation(ctx, database, "Shelf", garage.ID)

	checks, err := Move(ctx, database, MoveRequest{LocationIDs: []string{garage.ID}, DestinationID: shelf.ID})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if checks[0].OK {
		t.Fatal("expected the cycle move to be rejected")
	}
	if checks[0].Reason != ErrWouldCycle.Message {
		t.Errorf("expected cycle reason, got %q", checks[0].Reason)
	}

	got, _ := GetLocation(ctx, database, garage.ID)
	if got.ParentID != nil {
		t.Errorf("expected Garage untouched at top level, got parent %v", got.ParentID)
	}
}

func TestMoveDepthBoundary(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	chain := createChain(t, database, model.MaxDepth)
	box, _ := CreateLocation(ctx, database, "Box", "")

	// Depth 14 + the box itself = exactly at the cap.
	checks, err := Move(ctx, database, MoveRequest{LocationIDs: []string{box.ID}, DestinationID: chain[model.MaxDepth-2]})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !checks[0].OK {
		t.Fatalf("expected move to depth %d to pass, got %q", model.MaxDepth, checks[0].Reason)
	}

	// One level further would make depth 16.
	checks, err = Move(ctx, database, MoveRequest{LocationIDs: []string{box.ID}, DestinationID: chain[model.MaxDepth-1]})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if checks[0].OK {
		t.Fatal("expected move past the depth cap to be rejected")
	}
	if checks[0].Reason != ErrTooDeep.Message {
		t.Errorf("expected depth reason, got %q", checks[0].Reason)
	}
}

func TestMoveBatchPartialSuccess(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	house, _ := CreateLocation(ctx, database, "House", "")
	dest, _ := CreateLocation(ctx, database, "Cellar", house.ID)
	crate, _ := CreateLocation(ctx, database, "Crate", "")
	lamp, _ := CreateItem(ctx, database, "Lamp", "", crate.ID)

	checks, err := Move(ctx, database, MoveRequest{
		LocationIDs:   []string{crate.ID, house.ID},
		ItemIDs:       []string{lamp.ID, "itm-missing"},
		DestinationID: dest.ID,
	})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if len(checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(checks))
	}

	byID := make(map[string]MoveCheck)
	for _, check := range checks {
		byID[check.ID] = check
	}
	if !byID[crate.ID].OK {
		t.Errorf("expected Crate move to pass, got %q", byID[crate.ID].Reason)
	}
	if byID[house.ID].OK {
		t.Error("expected moving House into its own subtree to fail")
	}
	if !byID[lamp.ID].OK {
		t.Errorf("expected Lamp move to pass, got %q", byID[lamp.ID].Reason)
	}
	if byID["itm-missing"].OK {
		t.Error("expected unknown item to fail")
	}

	movedCrate, _ := GetLocation(ctx, database, crate.ID)
	if movedCrate.ParentID == nil || *movedCrate.ParentID != dest.ID {
		t.Errorf("expected Crate under Cellar, got %v", movedCrate.ParentID)
	}
	movedLamp, _ := GetItem(ctx, database, lamp.ID)
	if movedLamp.LocationID == nil || *movedLamp.LocationID != dest.ID {
		t.Errorf("expected Lamp in Cellar, got %v", movedLamp.LocationID)
	}
	unmoved, _ := GetLocation(ctx, database, house.ID)
	if unmoved.ParentID != nil {
		t.Errorf("expected House untouched, got parent %v", unmoved.ParentID)
	}
}

func TestMoveItemOutOfHierarchy(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	shed, _ := CreateLocation(ctx, database, "Shed", "")
	rake, _ := CreateItem(ctx, database, "Rake", "", shed.ID)

	checks, err := Move(ctx, database, MoveRequest{ItemIDs: []string{rake.ID}})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if !checks[0].OK {
		t.Fatalf("expected move out of the hierarchy to pass, got %q", checks[0].Reason)
	}

	item, _ := GetItem(ctx, database, rake.ID)
	if item.LocationID != nil {
		t.Errorf("expected no location, got %v", *item.LocationID)
	}

	homeless, err := ListItems(ctx, database, "none", "", "", "")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(homeless) != 1 || homeless[0].ID != rake.ID {
		t.Errorf("expected the Rake outside the hierarchy, got %+v", homeless)
	}
}

func TestMoveDestinationMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	shed, _ := CreateLocation(ctx, database, "Shed", "")

	if _, err := Move(ctx, database, MoveRequest{LocationIDs: []string{shed.ID}, DestinationID: "loc-missing"}); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestPreviewMoveDoesNotApply(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	garage, _ := CreateLocation(ctx, database, "Garage", "")
	shelf, _ := CreateLocation(ctx, database, "Shelf", garage.ID)
	shed, _ := CreateLocation(ctx, database, "Shed", "")

	checks, err := PreviewMove(ctx, database, MoveRequest{
		LocationIDs:   []string{shelf.ID, garage.ID},
		DestinationID: shed.ID,
	})
	if err != nil {
		t.Fatalf("PreviewMove: %v", err)
	}
	if !checks[0].OK || !checks[1].OK {
		t.Errorf("expected both moves to validate, got %+v", checks)
	}

	got, _ := GetLocation(ctx, database, shelf.ID)
	if got.ParentID == nil || *got.ParentID != garage.ID {
		t.Error("expected preview to leave the tree unchanged")
	}
}
