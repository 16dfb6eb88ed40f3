package api

import (
	"database/sql"
	"net/http"

	"github.com/zkrizaj/hramba/internal/store"
)

// MovesHandler handles batch move endpoints. A move names location
// subtrees and items plus one shared destination; each target gets its
// own verdict, so one bad target never blocks the rest.
type MovesHandler struct {
	DB *sql.DB
}

// Preview handles POST /api/moves/preview. It runs the same checks as
// a real move without changing anything.
func (h *MovesHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req store.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	checks, err := store.PreviewMove(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err)
		return
	}
	if checks == nil {
		checks = []store.MoveCheck{}
	}
	jsonResponse(w, http.StatusOK, checks)
}

// Move handles POST /api/moves. Targets that pass validation move;
// the response tells apart the ones that did not.
func (h *MovesHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req store.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	checks, err := store.Move(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err)
		return
	}
	if checks == nil {
		checks = []store.MoveCheck{}
	}
	jsonResponse(w, http.StatusOK, checks)
}
