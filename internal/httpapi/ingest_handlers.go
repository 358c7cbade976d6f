package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"

	"havenjob-engine/internal/config"
	"havenjob-engine/internal/emailpoll"
)

type IngestHandler struct {
	CfgVal  *atomic.Value // config.Config
	Status  func() emailpoll.Status
	RunPoll func(ctx context.Context) (emailpoll.Summary, error)
}

func (h IngestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Status())
}

// Run starts one IMAP pass in the background; progress shows up in GetStatus.
func (h IngestHandler) Run(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if !cfg.Email.Enabled {
		WriteError(w, r, http.StatusConflict, "email_disabled", "email polling is disabled in config")
		return
	}
	if h.Status().Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	go func() {
		_, _ = h.RunPoll(context.Background())
	}()
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
