package store

import (
	"context"
	"errors"
	"testing"

	"github.com/zkrizaj/hramba/internal/db"
)

func TestCreateTagCaseInsensitiveUnique(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tag, err := CreateTag(ctx, database, "Tools", "#ff8800")
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if tag.Name != "Tools" || tag.Color != "#ff8800" {
		t.Errorf("expected created tag back, got %+v", tag)
	}

	if _, err := CreateTag(ctx, database, "tools", ""); !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("expected ErrDuplicateTag for 'tools', got %v", err)
	}
	if _, err := CreateTag(ctx, database, "TOOLS", ""); !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("expected ErrDuplicateTag for 'TOOLS', got %v", err)
	}
	if _, err := CreateTag(ctx, database, "  ", ""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}

	tags, _ := ListTags(ctx, database)
	if len(tags) != 1 {
		t.Errorf("expected 1 tag, got %d", len(tags))
	}
}

func TestUpdateTag(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tools, _ := CreateTag(ctx, database, "Tools", "")
	CreateTag(ctx, database, "Books", "")

	if err := UpdateTag(ctx, database, tools.ID, "Hand Tools", "#00ff00"); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}
	got, _ := GetTag(ctx, database, tools.ID)
	if got.Name != "Hand Tools" || got.Color != "#00ff00" {
		t.Errorf("expected updated tag, got %+v", got)
	}

	// Renaming a tag onto itself in a different case is fine.
	if err := UpdateTag(ctx, database, tools.ID, "hand tools", ""); err != nil {
		t.Errorf("expected case change of own name to pass, got %v", err)
	}

	if err := UpdateTag(ctx, database, tools.ID, "books", ""); !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("expected ErrDuplicateTag, got %v", err)
	}
	if err := UpdateTag(ctx, database, "tag-missing", "Garden", ""); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("expected ErrTagNotFound, got %v", err)
	}
}

func TestRetagItemKeepsBothSidesConsistent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	shelf, _ := CreateLocation(ctx, database, "Shelf", "")
	hammer, _ := CreateItem(ctx, database, "Hammer", "", shelf.ID)
	tools, _ := CreateTag(ctx, database, "Tools", "")
	metal, _ := CreateTag(ctx, database, "Metal", "")

	if err := RetagItem(ctx, database, hammer.ID, []string{tools.ID, metal.ID, tools.ID}); err != nil {
		t.Fatalf("RetagItem: %v", err)
	}

	// Item side: both tags, name order, duplicates collapsed.
	item, _ := GetItem(ctx, database, hammer.ID)
	if len(item.Tags) != 2 || item.Tags[0].Name != "Metal" || item.Tags[1].Name != "Tools" {
		t.Errorf("expected tags [Metal Tools], got %+v", item.Tags)
	}

	// Tag side: the same link is visible from the tag.
	toolsTag, _ := GetTag(ctx, database, tools.ID)
	if toolsTag.ItemCount != 1 {
		t.Errorf("expected item count 1, got %d", toolsTag.ItemCount)
	}
	tagged, _ := ListItems(ctx, database, "", tools.ID, "", "")
	if len(tagged) != 1 || tagged[0].ID != hammer.ID {
		t.Errorf("expected the hammer via the tag, got %+v", tagged)
	}

	// Replacing the set drops the old links.
	if err := RetagItem(ctx, database, hammer.ID, []string{metal.ID}); err != nil {
		t.Fatalf("RetagItem: %v", err)
	}
	item, _ = GetItem(ctx, database, hammer.ID)
	if len(item.Tags) != 1 || item.Tags[0].Name != "Metal" {
		t.Errorf("expected just Metal, got %+v", item.Tags)
	}
	toolsTag, _ = GetTag(ctx, database, tools.ID)
	if toolsTag.ItemCount != 0 {
		t.Errorf("expected item count 0 after retag, got %d", toolsTag.ItemCount)
	}

	// Unknown tags reject the whole retag.
	if err := RetagItem(ctx, database, hammer.ID, []string{metal.ID, "tag-missing"}); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("expected ErrTagNotFound, got %v", err)
	}
	item, _ = GetItem(ctx, database, hammer.ID)
	if len(item.Tags) != 1 {
		t.Errorf("expected tag set unchanged after failed retag, got %+v", item.Tags)
	}

	if err := RetagItem(ctx, database, "itm-missing", []string{metal.ID}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestDeleteTagDetachesItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	shelf, _ := CreateLocation(ctx, database, "Shelf", "")
	hammer, _ := CreateItem(ctx, database, "Hammer", "", shelf.ID)
	tools, _ := CreateTag(ctx, database, "Tools", "")
	RetagItem(ctx, database, hammer.ID, []string{tools.ID})

	if err := DeleteTag(ctx, database, tools.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	item, _ := GetItem(ctx, database, hammer.ID)
	if len(item.Tags) != 0 {
		t.Errorf("expected no tags after delete, got %+v", item.Tags)
	}
	if got, _ := GetTag(ctx, database, tools.ID); got != nil {
		t.Error("expected tag to be gone")
	}
	if err := DeleteTag(ctx, database, tools.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("expected ErrTagNotFound, got %v", err)
	}
}

func TestDeleteItemDetachesTags(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	shelf, _ := CreateLocation(ctx, database, "Shelf", "")
	hammer, _ := CreateItem(ctx, database, "Hammer", "", shelf.ID)
	tools, _ := CreateTag(ctx, database, "Tools", "")
	RetagItem(ctx, database, hammer.ID, []string{tools.ID})

	DeleteItem(ctx, database, hammer.ID)

	got, _ := GetTag(ctx, database, tools.ID)
	if got.ItemCount != 0 {
		t.Errorf("expected item count 0 after item delete, got %d", got.ItemCount)
	}
}
