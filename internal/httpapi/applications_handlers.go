package httpapi

import (
	"net/http"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/ledger"
)

type ApplicationsHandler struct {
	Ledger *ledger.Ledger
}

func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Ledger.List(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, list)
}

func (h ApplicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.NewApplication
	if !decodeJSON(w, r, &req) {
		return
	}
	app, err := h.Ledger.CreateManual(r.Context(), UserIDFrom(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, app)
}

func (h ApplicationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	app, ok := h.owned(w, r)
	if !ok {
		return
	}
	writeJSON(w, app)
}

// UpdateStatus records a user-initiated status change.
func (h ApplicationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "status must be one of the application statuses")
		return
	}
	app, ok := h.owned(w, r)
	if !ok {
		return
	}
	app, err := h.Ledger.TransitionStatus(r.Context(), app.ID, req.Status, domain.ChangedByUser)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, app)
}

func (h ApplicationsHandler) History(w http.ResponseWriter, r *http.Request) {
	app, ok := h.owned(w, r)
	if !ok {
		return
	}
	hist, err := h.Ledger.History(r.Context(), app.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, hist)
}

// owned loads {id} and checks it belongs to the caller, writing 404/403 otherwise.
func (h ApplicationsHandler) owned(w http.ResponseWriter, r *http.Request) (domain.Application, bool) {
	app, err := h.Ledger.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return domain.Application{}, false
	}
	if app.DeletedAt != nil {
		WriteError(w, r, http.StatusNotFound, "not_found", "Application not found")
		return domain.Application{}, false
	}
	if app.UserID != UserIDFrom(r.Context()) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "Forbidden")
		return domain.Application{}, false
	}
	return app, true
}
