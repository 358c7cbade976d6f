package httpapi

import (
	"net/http"

	"havenjob-engine/internal/trust"
)

type SendersHandler struct {
	Trust trust.Store
}

func (h SendersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Trust.List(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h SendersHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addSenderReq
	if !decodeJSON(w, r, &req) {
		return
	}
	ts, err := h.Trust.Add(r.Context(), UserIDFrom(r.Context()), req.SenderEmail, req.Label)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, ts)
}

func (h SendersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Trust.Remove(r.Context(), UserIDFrom(r.Context()), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
