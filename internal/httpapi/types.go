package httpapi

import "havenjob-engine/internal/domain"

// webhookReq distinguishes missing fields from empty ones.
type webhookReq struct {
	Sender    *string `json:"sender"`
	Recipient *string `json:"recipient"`
	Subject   *string `json:"subject"`
	Body      *string `json:"body"`
	HTMLBody  *string `json:"html_body"`
}

type registerUserReq struct {
	Email             string `json:"email"`
	ForwardingAddress string `json:"forwarding_address"`
}

type addSenderReq struct {
	SenderEmail string `json:"sender_email"`
	Label       string `json:"label"`
}

type statusUpdateReq struct {
	Status domain.Status `json:"status"`
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}
