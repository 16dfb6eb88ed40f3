package api

import (
	"database/sql"
	"net/http"

	"github.com/zkrizaj/hramba/internal/model"
	"github.com/zkrizaj/hramba/internal/store"
)

// LocationsHandler handles location tree endpoints.
type LocationsHandler struct {
	DB *sql.DB
}

type createLocationRequest struct {
	Name     string `json:"name" validate:"required"`
	ParentID string `json:"parent_id"`
}

type renameLocationRequest struct {
	Name string `json:"name" validate:"required"`
}

type reviewRequest struct {
	Reviewed bool `json:"reviewed"`
}

// List handles GET /api/locations. With ?roots=true only top-level
// locations are returned.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := store.ListLocations(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}

	if r.URL.Query().Get("roots") == "true" {
		var roots []model.Location
		for _, loc := range locations {
			if loc.ParentID == nil {
				roots = append(roots, loc)
			}
		}
		locations = roots
	}

	if locations == nil {
		locations = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locations)
}

// Create handles POST /api/locations.
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	location, err := store.CreateLocation(r.Context(), h.DB, req.Name, req.ParentID)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, location)
}

// Get handles GET /api/locations/{id}.
func (h *LocationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	location, err := store.GetLocation(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}
	jsonResponse(w, http.StatusOK, location)
}

// Rename handles PUT /api/locations/{id}.
func (h *LocationsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	if err := store.RenameLocation(r.Context(), h.DB, id, req.Name); err != nil {
		storeError(w, err)
		return
	}

	location, _ := store.GetLocation(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, location)
}

// Delete handles DELETE /api/locations/{id}. The response lists
// everything the cascade removed.
func (h *LocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := store.DeleteLocation(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Children handles GET /api/locations/{id}/children.
func (h *LocationsHandler) Children(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	location, err := store.GetLocation(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	if location == nil {
		jsonError(w, http.StatusNotFound, "location not found")
		return
	}

	locations, err := store.ListLocations(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}

	children := []model.Location{}
	for _, loc := range locations {
		if loc.ParentID != nil && *loc.ParentID == id {
			children = append(children, loc)
		}
	}
	jsonResponse(w, http.StatusOK, children)
}

// Items handles GET /api/locations/{id}/items. With ?recursive=true
// the listing covers the whole subtree, each item annotated with its
// location path.
func (h *LocationsHandler) Items(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var items []model.Item
	var err error
	if r.URL.Query().Get("recursive") == "true" {
		items, err = store.ItemsUnder(r.Context(), h.DB, id)
	} else {
		location, getErr := store.GetLocation(r.Context(), h.DB, id)
		if getErr != nil {
			storeError(w, getErr)
			return
		}
		if location == nil {
			jsonError(w, http.StatusNotFound, "location not found")
			return
		}
		items, err = store.ListItems(r.Context(), h.DB, id, "", "", "")
	}
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Review handles PUT /api/locations/{id}/review. Reviewing and
// unreviewing both go through here; either way the change lands in the
// review ledger.
func (h *LocationsHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	location, err := store.SetReviewed(r.Context(), h.DB, r.PathValue("id"), req.Reviewed)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, location)
}
