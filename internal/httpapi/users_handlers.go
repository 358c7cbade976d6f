package httpapi

import (
	"net/http"

	"havenjob-engine/internal/users"
)

type UsersHandler struct {
	Users users.Registry
}

func (h UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerUserReq
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.Users.Register(r.Context(), req.Email, req.ForwardingAddress)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, u)
}

func (h UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, u)
}
