package httpapi

import (
	"database/sql"
	"net/http"

	"havenjob-engine/internal/store"
)

type DBHandler struct {
	DB *sql.DB
}

// Checkpoint folds the WAL into the main file. Mounted behind LocalOnly.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if err := store.Checkpoint(r.Context(), h.DB); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
