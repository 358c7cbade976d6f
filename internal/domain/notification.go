package domain

import "time"

const (
	NotificationApplicationCreated = "application_created"

	RelatedEntityApplication = "application"
	RelatedEntitySystem      = "system"
)

type Notification struct {
	ID                string    `json:"id"`
	UserID            string    `json:"-"`
	Type              string    `json:"type"`
	Title             string    `json:"title"`
	Message           *string   `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType *string   `json:"related_entity_type"`
	RelatedEntityID   *string   `json:"related_entity_id"`
	CreatedAt         time.Time `json:"created_at"`
}
