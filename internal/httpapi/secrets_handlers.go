package httpapi

import (
	"net/http"
	"sync/atomic"

	"havenjob-engine/internal/config"
	"havenjob-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
	Set    func(account, password string) error
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if !decodeJSON(w, r, &req) {
		return
	}

	// cfg read at call time so a just-saved username/host is used
	cfg := h.CfgVal.Load().(config.Config)
	account := secrets.IMAPKeyringAccount(cfg)
	if account == "" {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "email.username and email.imap_host must be configured first")
		return
	}
	if err := h.Set(account, req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
