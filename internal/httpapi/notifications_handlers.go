package httpapi

import (
	"net/http"

	"havenjob-engine/internal/notify"
)

type NotificationsHandler struct {
	Inbox notify.Inbox
}

func (h NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Inbox.List(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Inbox.MarkRead(r.Context(), UserIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, n)
}
