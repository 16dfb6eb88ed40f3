package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/zkrizaj/hramba/internal/backup"
	"github.com/zkrizaj/hramba/internal/logging"
)

// maxSnapshotBytes bounds uploaded snapshots. Snapshots carry photos
// inline, so they can get large.
const maxSnapshotBytes = 256 << 20

// BackupHandler handles snapshot export and import.
type BackupHandler struct {
	DB *sql.DB
}

// Export handles GET /api/backup/export. The response is a complete
// snapshot, offered as a download.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := backup.Export(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}

	name := fmt.Sprintf("hramba-%s.json", snap.Date.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := backup.Encode(w, snap); err != nil {
		logging.Errorw("writing snapshot", "error", err)
	}
}

// Import handles POST /api/backup/import. The snapshot is validated in
// full before anything is replaced, so a bad upload leaves the
// existing inventory alone.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	snap, err := backup.Decode(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := backup.Import(r.Context(), h.DB, snap)
	if err != nil {
		if errors.Is(err, backup.ErrCorrupt) || errors.Is(err, backup.ErrUnsupportedVersion) {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		storeError(w, err)
		return
	}

	logging.Infow("snapshot imported",
		"locations", stats.Locations,
		"items", stats.Items,
		"tags", stats.Tags,
		"review_entries", stats.ReviewEntries,
	)
	jsonResponse(w, http.StatusOK, stats)
}
