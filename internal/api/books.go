package api

import (
	"database/sql"
	"net/http"

	"github.com/zkrizaj/hramba/internal/store"
)

// BooksHandler handles the book records view of the item store.
type BooksHandler struct {
	DB *sql.DB
}

type createBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description"`
	LocationID  string `json:"location_id"`
}

type updateBookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"description"`
}

// List handles GET /api/books. The group query parameter picks the
// shelf order: by author (the default) or by location.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	groupBy := r.URL.Query().Get("group")
	if groupBy == "" {
		groupBy = store.GroupByAuthor
	}

	groups, err := store.ListBooks(r.Context(), h.DB, groupBy)
	if err != nil {
		storeError(w, err)
		return
	}
	if groups == nil {
		groups = []store.BookGroup{}
	}
	jsonResponse(w, http.StatusOK, groups)
}

// Create handles POST /api/books.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	book, err := store.CreateBook(r.Context(), h.DB, req.Title, req.Author, req.Description, req.LocationID)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, book)
}

// Update handles PUT /api/books/{id}. The item name is rebuilt from
// the new title and author.
func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	if err := store.UpdateBook(r.Context(), h.DB, id, req.Title, req.Author, req.Description); err != nil {
		storeError(w, err)
		return
	}

	book, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, book)
}
