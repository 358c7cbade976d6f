package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"havenjob-engine/internal/domain"
)

const notificationCols = `id, user_id, type, title, message, is_read, related_entity_type, related_entity_id, created_at`

func InsertNotification(ctx context.Context, q Querier, n domain.Notification) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO notifications(`+notificationCols+`)
VALUES(?,?,?,?,?,?,?,?,?);`,
		n.ID, n.UserID, n.Type, n.Title, nullString(n.Message), boolInt(n.IsRead),
		nullString(n.RelatedEntityType), nullString(n.RelatedEntityID), formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func GetNotification(ctx context.Context, q Querier, id string) (domain.Notification, error) {
	n, err := scanNotification(q.QueryRowContext(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE id = ? LIMIT 1;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notification{}, ErrNotFound
	}
	return n, err
}

// ListNotifications returns the user's newest notifications first.
func ListNotifications(ctx context.Context, q Querier, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.QueryContext(ctx, `
SELECT `+notificationCols+`
FROM notifications
WHERE user_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?;`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// NotificationsFor returns every notification linked to one related entity.
func NotificationsFor(ctx context.Context, q Querier, entityType, entityID string) ([]domain.Notification, error) {
	rows, err := q.QueryContext(ctx, `
SELECT `+notificationCols+`
FROM notifications
WHERE related_entity_type = ? AND related_entity_id = ?
ORDER BY created_at ASC;`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func MarkNotificationRead(ctx context.Context, q Querier, id string) error {
	res, err := q.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(s scanner) (domain.Notification, error) {
	var (
		n                             domain.Notification
		message, entityType, entityID sql.NullString
		isRead                        int
		created                       string
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &message, &isRead, &entityType, &entityID, &created); err != nil {
		return domain.Notification{}, err
	}
	n.Message = stringPtr(message)
	n.IsRead = isRead != 0
	n.RelatedEntityType = stringPtr(entityType)
	n.RelatedEntityID = stringPtr(entityID)
	n.CreatedAt = parseTime(created)
	return n, nil
}
