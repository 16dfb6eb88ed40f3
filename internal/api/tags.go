package api

import (
	"database/sql"
	"net/http"

	"github.com/zkrizaj/hramba/internal/model"
	"github.com/zkrizaj/hramba/internal/store"
)

// TagsHandler handles tag registry endpoints.
type TagsHandler struct {
	DB *sql.DB
}

type tagRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// List handles GET /api/tags.
func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := store.ListTags(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	jsonResponse(w, http.StatusOK, tags)
}

// Create handles POST /api/tags.
func (h *TagsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	tag, err := store.CreateTag(r.Context(), h.DB, req.Name, req.Color)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, tag)
}

// Get handles GET /api/tags/{id}.
func (h *TagsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tag, err := store.GetTag(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	if tag == nil {
		jsonError(w, http.StatusNotFound, "tag not found")
		return
	}
	jsonResponse(w, http.StatusOK, tag)
}

// Update handles PUT /api/tags/{id}.
func (h *TagsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	if err := store.UpdateTag(r.Context(), h.DB, id, req.Name, req.Color); err != nil {
		storeError(w, err)
		return
	}

	tag, _ := store.GetTag(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, tag)
}

// Delete handles DELETE /api/tags/{id}. Items keep existing; they just
// lose the tag.
func (h *TagsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteTag(r.Context(), h.DB, r.PathValue("id")); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "tag deleted"})
}
