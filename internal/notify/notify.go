// Package notify records in-app notifications for ledger events.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/store"
)

const (
	DefaultCreatedTitle   = "New application logged"
	DefaultCreatedMessage = "An application was added from your forwarded email."
)

type Dispatcher struct {
	// CreatedTitle and CreatedMessage override the defaults when non-empty.
	CreatedTitle   string
	CreatedMessage string
}

// NotifyApplicationCreated writes an unread application_created notification
// through q, which is normally the transaction that created the application.
func (d Dispatcher) NotifyApplicationCreated(ctx context.Context, q store.Querier, userID, applicationID string, title, message *string) (domain.Notification, error) {
	t := d.CreatedTitle
	if t == "" {
		t = DefaultCreatedTitle
	}
	if title != nil {
		t = *title
	}
	m := d.CreatedMessage
	if m == "" {
		m = DefaultCreatedMessage
	}
	if message != nil {
		m = *message
	}

	entityType := domain.RelatedEntityApplication
	entityID := applicationID
	n := domain.Notification{
		ID:                uuid.NewString(),
		UserID:            userID,
		Type:              domain.NotificationApplicationCreated,
		Title:             t,
		Message:           &m,
		RelatedEntityType: &entityType,
		RelatedEntityID:   &entityID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := store.InsertNotification(ctx, q, n); err != nil {
		return domain.Notification{}, fmt.Errorf("notify application created: %w", err)
	}
	return n, nil
}
