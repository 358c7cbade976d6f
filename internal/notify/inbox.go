package notify

import (
	"context"
	"database/sql"
	"errors"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/store"
)

const InboxLimit = 50

var (
	ErrNotFound  = errors.New("notify: notification not found")
	ErrForbidden = errors.New("notify: notification belongs to another user")
)

// Inbox is the user-facing read side of notifications.
type Inbox struct {
	DB *sql.DB
}

// List returns the newest InboxLimit notifications for userID.
func (i Inbox) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	return store.ListNotifications(ctx, i.DB, userID, InboxLimit)
}

func (i Inbox) MarkRead(ctx context.Context, userID, id string) (domain.Notification, error) {
	n, err := store.GetNotification(ctx, i.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Notification{}, ErrNotFound
	}
	if err != nil {
		return domain.Notification{}, err
	}
	if n.UserID != userID {
		return domain.Notification{}, ErrForbidden
	}
	if err := store.MarkNotificationRead(ctx, i.DB, id); err != nil {
		return domain.Notification{}, err
	}
	n.IsRead = true
	return n, nil
}
