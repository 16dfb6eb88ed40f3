package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/zkrizaj/hramba/internal/logging"
	"github.com/zkrizaj/hramba/internal/model"
	"github.com/zkrizaj/hramba/internal/store"
)

// ReviewHandler handles the review ledger and the expiry sweep.
type ReviewHandler struct {
	DB *sql.DB

	// Threshold is the age at which reviewed marks expire. Zero or
	// negative disables sweeping.
	Threshold time.Duration
}

// Log handles GET /api/review/log. Entries come back newest first;
// the location and limit query parameters narrow the listing.
func (h *ReviewHandler) Log(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	entries, err := store.ListReviewLog(r.Context(), h.DB, q.Get("location"), limit)
	if err != nil {
		storeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.ReviewEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Sweep handles POST /api/review/sweep. It expires stale review marks
// immediately instead of waiting for the periodic sweep.
func (h *ReviewHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	swept, err := store.SweepReviews(r.Context(), h.DB, time.Now().UTC(), h.Threshold)
	if err != nil {
		storeError(w, err)
		return
	}
	if swept == nil {
		swept = []model.Location{}
	}

	if len(swept) > 0 {
		logging.Infow("review sweep", "expired", len(swept))
	}
	jsonResponse(w, http.StatusOK, swept)
}
