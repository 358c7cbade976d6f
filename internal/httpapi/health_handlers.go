package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"havenjob-engine/internal/events"
)

type HealthHandler struct {
	DB  *sql.DB
	Hub *events.Hub
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	out := map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	if h.Hub != nil {
		subs, dropped := h.Hub.Stats()
		out["sse_subscribers"] = subs
		out["sse_dropped"] = dropped
	}
	writeJSON(w, out)
}
