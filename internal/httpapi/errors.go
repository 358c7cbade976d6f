package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"havenjob-engine/internal/ledger"
	"havenjob-engine/internal/notify"
	"havenjob-engine/internal/trust"
	"havenjob-engine/internal/users"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeServiceError maps package sentinel errors onto HTTP statuses.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, notify.ErrNotFound),
		errors.Is(err, trust.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, notify.ErrForbidden):
		WriteError(w, r, http.StatusForbidden, "forbidden", "Forbidden")
	case errors.Is(err, ledger.ErrInvalidStatus),
		errors.Is(err, ledger.ErrInvalidActor),
		errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, trust.ErrInvalidSender),
		errors.Is(err, users.ErrInvalidEmail):
		WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, trust.ErrDuplicateSender),
		errors.Is(err, users.ErrEmailTaken),
		errors.Is(err, users.ErrForwardingTaken):
		WriteError(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, users.ErrForwardingExhausted):
		WriteError(w, r, http.StatusServiceUnavailable, "forwarding_exhausted", err.Error())
	default:
		log.Printf("level=error msg=\"request failed\" request_id=%s method=%s path=%s err=%q",
			RequestIDFrom(r.Context()), r.Method, r.URL.Path, err)
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
