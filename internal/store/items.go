package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/zkrizaj/hramba/internal/id"
	"github.com/zkrizaj/hramba/internal/model"
)

const itemCols = `i.id, i.name, i.description, i.location_id, i.plan, i.move_destination,
	i.is_book, i.book_title, i.book_author, i.photo_mime, i.created_at`

func scanItem(rows *sql.Rows, withLocationName bool) (model.Item, error) {
	var item model.Item
	var photoMime, locationName sql.NullString

	dest := []any{&item.ID, &item.Name, &item.Description, &item.LocationID, &item.Plan,
		&item.MoveDestination, &item.IsBook, &item.BookTitle, &item.BookAuthor, &photoMime, &item.CreatedAt}
	if withLocationName {
		dest = append(dest, &locationName)
	}
	if err := rows.Scan(dest...); err != nil {
		return item, fmt.Errorf("scanning item: %w", err)
	}
	item.PhotoMime = photoMime.String
	item.LocationName = locationName.String
	return item, nil
}

// attachTags populates Tags for every item in the slice with a single
// query.
func attachTags(ctx context.Context, q querier, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	rows, err := q.QueryContext(ctx,
		`SELECT it.item_id, t.id, t.name, t.color, t.created_at
		 FROM item_tags it
		 JOIN tags t ON t.id = it.tag_id
		 WHERE it.item_id IN (`+placeholders(len(ids))+`)
		 ORDER BY t.name`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("loading item tags: %w", err)
	}
	defer rows.Close()

	byItem := make(map[string][]model.Tag)
	for rows.Next() {
		var itemID string
		var tag model.Tag
		if err := rows.Scan(&itemID, &tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return fmt.Errorf("scanning item tag: %w", err)
		}
		byItem[itemID] = append(byItem[itemID], tag)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loading item tags: %w", err)
	}

	for i := range items {
		items[i].Tags = byItem[items[i].ID]
	}
	return nil
}

// CreateItem creates an item at the given location. New items always
// start somewhere in the hierarchy; only a later move can take them
// out of it.
func CreateItem(ctx context.Context, db *sql.DB, name, description, locationID string) (*model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if loc, err := GetLocation(ctx, db, locationID); err != nil {
		return nil, err
	} else if loc == nil {
		return nil, ErrLocationNotFound
	}

	itemID, err := id.New(id.Item)
	if err != nil {
		return nil, fmt.Errorf("creating item id: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, description, location_id) VALUES (?, ?, ?, ?)`,
		itemID, name, description, locationID,
	); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, itemID)
}

// CreateBook creates a book record at the given location. Title and
// author are both required; the display name is derived from them.
func CreateBook(ctx context.Context, db *sql.DB, title, author, description, locationID string) (*model.Item, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return nil, ErrInvalidName
	}
	if loc, err := GetLocation(ctx, db, locationID); err != nil {
		return nil, err
	} else if loc == nil {
		return nil, ErrLocationNotFound
	}

	itemID, err := id.New(id.Item)
	if err != nil {
		return nil, fmt.Errorf("creating item id: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO items (id, name, description, location_id, is_book, book_title, book_author)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		itemID, model.BookName(title, author), description, locationID, title, author,
	); err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	return GetItem(ctx, db, itemID)
}

// GetItem returns an item by id with its tags and location name
// populated, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, itemID string) (*model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemCols+`, l.name
		 FROM items i
		 LEFT JOIN locations l ON l.id = i.location_id
		 WHERE i.id = ?`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting item: %w", err)
		}
		return nil, nil
	}
	item, err := scanItem(rows, true)
	if err != nil {
		return nil, err
	}
	rows.Close()

	items := []model.Item{item}
	if err := attachTags(ctx, db, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListItems returns items in name order, with tags and location names
// populated. All filters are optional: locationID filters by exact
// location ("none" selects items outside the hierarchy), tagID by tag,
// plan by plan ("none" selects items without one), and search by a
// case-insensitive substring of the name.
func ListItems(ctx context.Context, db *sql.DB, locationID, tagID, plan, search string) ([]model.Item, error) {
	query := `SELECT ` + itemCols + `, l.name
	          FROM items i
	          LEFT JOIN locations l ON l.id = i.location_id
	          WHERE 1=1`
	var args []any

	switch locationID {
	case "":
	case "none":
		query += ` AND i.location_id IS NULL`
	default:
		query += ` AND i.location_id = ?`
		args = append(args, locationID)
	}
	if tagID != "" {
		query += ` AND i.id IN (SELECT item_id FROM item_tags WHERE tag_id = ?)`
		args = append(args, tagID)
	}
	switch plan {
	case "":
	case "none":
		query += ` AND i.plan = ''`
	default:
		query += ` AND i.plan = ?`
		args = append(args, plan)
	}
	if search != "" {
		query += ` AND i.name LIKE ?`
		args = append(args, "%"+search+"%")
	}

	query += ` ORDER BY i.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	if err := attachTags(ctx, db, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ItemsUnder returns every item in the subtree rooted at the given
// location, in tree order: a location's own items (by name) come
// before its children's, children visited in name order. Each item's
// LocationPath runs from the queried root down to its location.
func ItemsUnder(ctx context.Context, db *sql.DB, rootID string) ([]model.Item, error) {
	tree, err := LoadTree(ctx, db)
	if err != nil {
		return nil, err
	}
	if tree.Get(rootID) == nil {
		return nil, ErrLocationNotFound
	}
	subtree := tree.SubtreeIDs(rootID)

	rows, err := db.QueryContext(ctx,
		`SELECT `+itemCols+`, l.name
		 FROM items i
		 LEFT JOIN locations l ON l.id = i.location_id
		 WHERE i.location_id IN (`+placeholders(len(subtree))+`)
		 ORDER BY i.name`,
		stringArgs(subtree)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing subtree items: %w", err)
	}
	defer rows.Close()

	byLocation := make(map[string][]model.Item)
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, err
		}
		if item.LocationID != nil {
			byLocation[*item.LocationID] = append(byLocation[*item.LocationID], item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing subtree items: %w", err)
	}

	var items []model.Item
	tree.Walk(rootID, func(loc *model.Location, path []string) {
		for _, item := range byLocation[loc.ID] {
			item.LocationPath = path
			items = append(items, item)
		}
	})

	if err := attachTags(ctx, db, items); err != nil {
		return nil, err
	}
	return items, nil
}

// PlanGroup is one plan bucket in a by-plan listing.
type PlanGroup struct {
	Plan  string       `json:"plan"`
	Items []model.Item `json:"items"`
}

// ItemsByPlan returns every planned item grouped by plan. All plans
// appear in their canonical order, empty groups included; items
// without a plan are left out.
func ItemsByPlan(ctx context.Context, db *sql.DB) ([]PlanGroup, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemCols+`, l.name
		 FROM items i
		 LEFT JOIN locations l ON l.id = i.location_id
		 WHERE i.plan != ''
		 ORDER BY i.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items by plan: %w", err)
	}
	defer rows.Close()

	byPlan := make(map[string][]model.Item)
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, err
		}
		byPlan[item.Plan] = append(byPlan[item.Plan], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing items by plan: %w", err)
	}

	groups := make([]PlanGroup, 0, len(model.Plans()))
	for _, plan := range model.Plans() {
		groups = append(groups, PlanGroup{Plan: plan, Items: byPlan[plan]})
	}
	return groups, nil
}

// Book grouping modes for ListBooks.
const (
	GroupByAuthor   = "author"
	GroupByLocation = "location"
)

// BookGroup is one shelf of the books listing: the book records
// sharing an author, or a location.
type BookGroup struct {
	Key   string       `json:"key"`
	Items []model.Item `json:"items"`
}

// ListBooks returns every book record sorted by author then title,
// grouped by author or by location. Author matching ignores case;
// books outside the hierarchy come first under an empty location key.
func ListBooks(ctx context.Context, db *sql.DB, groupBy string) ([]BookGroup, error) {
	query := `SELECT ` + itemCols + `, l.name
	          FROM items i
	          LEFT JOIN locations l ON l.id = i.location_id
	          WHERE i.is_book = 1`
	switch groupBy {
	case GroupByAuthor:
		query += ` ORDER BY i.book_author COLLATE NOCASE, i.book_title COLLATE NOCASE`
	case GroupByLocation:
		// Distinct locations can share a name, so order by id as well
		// to keep each location's books contiguous.
		query += ` ORDER BY l.name, l.id, i.book_author COLLATE NOCASE, i.book_title COLLATE NOCASE`
	default:
		return nil, ErrInvalidGrouping
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []model.Item
	for rows.Next() {
		book, err := scanItem(rows, true)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	if err := attachTags(ctx, db, books); err != nil {
		return nil, err
	}

	var groups []BookGroup
	var lastGroup string
	for i, book := range books {
		var groupID, display string
		if groupBy == GroupByLocation {
			if book.LocationID != nil {
				groupID = *book.LocationID
			}
			display = book.LocationName
		} else {
			groupID = strings.ToLower(book.BookAuthor)
			display = book.BookAuthor
		}
		if i == 0 || groupID != lastGroup {
			groups = append(groups, BookGroup{Key: display})
			lastGroup = groupID
		}
		groups[len(groups)-1].Items = append(groups[len(groups)-1].Items, book)
	}
	return groups, nil
}

// UpdateItem updates a plain item's name and description. Book records
// are edited through UpdateBook so their derived name stays consistent.
func UpdateItem(ctx context.Context, db *sql.DB, itemID, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}

	var isBook bool
	err := db.QueryRowContext(ctx, `SELECT is_book FROM items WHERE id = ?`, itemID).Scan(&isBook)
	if err == sql.ErrNoRows {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("getting item: %w", err)
	}
	if isBook {
		return ErrIsBook
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ? WHERE id = ?`,
		name, description, itemID,
	); err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// UpdateBook updates a book record's title, author and description and
// re-derives its display name.
func UpdateBook(ctx context.Context, db *sql.DB, itemID, title, author, description string) error {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return ErrInvalidName
	}

	var isBook bool
	err := db.QueryRowContext(ctx, `SELECT is_book FROM items WHERE id = ?`, itemID).Scan(&isBook)
	if err == sql.ErrNoRows {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("getting item: %w", err)
	}
	if !isBook {
		return ErrNotABook
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, book_title = ?, book_author = ?, description = ? WHERE id = ?`,
		model.BookName(title, author), title, author, description, itemID,
	); err != nil {
		return fmt.Errorf("updating book: %w", err)
	}
	return nil
}

// SetPlan sets or clears an item's plan. The move destination is only
// kept for the "move" plan; any other plan (or clearing) resets it.
func SetPlan(ctx context.Context, db *sql.DB, itemID, plan, moveDestination string) error {
	if plan != "" && !model.ValidPlan(plan) {
		return ErrInvalidPlan
	}
	if plan != model.PlanMove {
		moveDestination = ""
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET plan = ?, move_destination = ? WHERE id = ?`,
		plan, moveDestination, itemID,
	)
	if err != nil {
		return fmt.Errorf("setting item plan: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteItem permanently removes an item and its tag links.
func DeleteItem(ctx context.Context, db *sql.DB, itemID string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// SetItemPhoto stores an item's photo.
func SetItemPhoto(ctx context.Context, db *sql.DB, itemID string, photo []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET photo = ?, photo_mime = ? WHERE id = ?`,
		photo, mime, itemID,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ItemPhoto returns an item's photo data and MIME type.
func ItemPhoto(ctx context.Context, db *sql.DB, itemID string) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, itemID,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
