package httpapi

import (
	"net/http"

	"havenjob-engine/internal/ingest"
)

type WebhookHandler struct {
	Pipeline *ingest.Pipeline
}

// Inbound answers 200 for every well-formed delivery, verified or not, so
// the relay learns nothing about which recipients exist.
func (h WebhookHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	var req webhookReq
	if !decodeLenientJSON(w, r, &req) {
		return
	}
	if req.Sender == nil || req.Recipient == nil {
		WriteError(w, r, http.StatusBadRequest, "validation_error", "sender and recipient are required")
		return
	}

	in := ingest.InboundEmail{
		Sender:    *req.Sender,
		Recipient: *req.Recipient,
	}
	if req.Subject != nil {
		in.Subject = *req.Subject
	}
	if req.Body != nil {
		in.Body = *req.Body
	}
	if req.HTMLBody != nil {
		in.HTMLBody = *req.HTMLBody
	}

	res, err := h.Pipeline.Process(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
