package domain

import "time"

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	ForwardingAddress string    `json:"forwarding_address"`
	CreatedAt         time.Time `json:"created_at"`
}

// TrustedSender is an address a user allows to feed the email pipeline.
type TrustedSender struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	SenderEmail string    `json:"sender_email"`
	Label       *string   `json:"label"`
	CreatedAt   time.Time `json:"created_at"`
}
