package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/zkrizaj/hramba/internal/imaging"
	"github.com/zkrizaj/hramba/internal/model"
	"github.com/zkrizaj/hramba/internal/store"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	LocationID  string `json:"location_id"`
}

type updateItemRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type setPlanRequest struct {
	Plan            string `json:"plan" validate:"omitempty,oneof=keep throw_away sell charity move fix"`
	MoveDestination string `json:"move_destination"`
}

type setTagsRequest struct {
	TagIDs []string `json:"tag_ids"`
}

// List handles GET /api/items. The location, tag, plan and search
// query parameters narrow the listing; they combine with AND.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := store.ListItems(r.Context(), h.DB, q.Get("location"), q.Get("tag"), q.Get("plan"), q.Get("search"))
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req.Name, req.Description, req.LocationID)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// ByPlan handles GET /api/items/by-plan.
func (h *ItemsHandler) ByPlan(w http.ResponseWriter, r *http.Request) {
	groups, err := store.ItemsByPlan(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, groups)
}

// Similar handles GET /api/items/similar. It suggests existing items
// whose names resemble the one being typed, to catch duplicates before
// they are created.
func (h *ItemsHandler) Similar(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		jsonError(w, http.StatusBadRequest, "name query parameter required")
		return
	}

	items, err := store.SimilarItems(r.Context(), h.DB, name)
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Book records are not edited
// here; their name is derived from title and author.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	if err := store.UpdateItem(r.Context(), h.DB, id, req.Name, req.Description); err != nil {
		storeError(w, err)
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteItem(r.Context(), h.DB, r.PathValue("id")); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// SetPlan handles PUT /api/items/{id}/plan. An empty plan clears the
// decision; the move destination only sticks when the plan is "move".
func (h *ItemsHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	var req setPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRequest(req); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	id := r.PathValue("id")
	if err := store.SetPlan(r.Context(), h.DB, id, req.Plan, req.MoveDestination); err != nil {
		storeError(w, err)
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// SetTags handles PUT /api/items/{id}/tags. The request replaces the
// item's whole tag set.
func (h *ItemsHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	var req setTagsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := store.RetagItem(r.Context(), h.DB, id, req.TagIDs); err != nil {
		storeError(w, err)
		return
	}

	item, _ := store.GetItem(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, item)
}

// UploadPhoto handles PUT /api/items/{id}/photo. The upload is a
// multipart form with the image in a "photo" field; whatever arrives
// is normalized to a bounded JPEG before storage.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1024)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	data, mime, err := imaging.Shrink(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			jsonError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, data, mime); err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// Photo handles GET /api/items/{id}/photo.
func (h *ItemsHandler) Photo(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.ItemPhoto(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	if len(data) == 0 {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// DeletePhoto handles DELETE /api/items/{id}/photo.
func (h *ItemsHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := store.SetItemPhoto(r.Context(), h.DB, r.PathValue("id"), nil, ""); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo removed"})
}
