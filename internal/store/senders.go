package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"havenjob-engine/internal/domain"
)

func InsertTrustedSender(ctx context.Context, q Querier, s domain.TrustedSender) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO trusted_senders(id, user_id, sender_email, label, created_at)
VALUES(?,?,?,?,?);`,
		s.ID, s.UserID, s.SenderEmail, nullString(s.Label), formatTime(s.CreatedAt),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert trusted sender: %w", err)
	}
	return nil
}

func ListTrustedSenders(ctx context.Context, q Querier, userID string) ([]domain.TrustedSender, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, user_id, sender_email, label, created_at
FROM trusted_senders
WHERE user_id = ?
ORDER BY created_at ASC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TrustedSender{}
	for rows.Next() {
		var s domain.TrustedSender
		var label sql.NullString
		var created string
		if err := rows.Scan(&s.ID, &s.UserID, &s.SenderEmail, &label, &created); err != nil {
			return nil, err
		}
		s.Label = stringPtr(label)
		s.CreatedAt = parseTime(created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteTrustedSender removes one of the user's senders; ErrNotFound covers
// both a missing id and one owned by somebody else.
func DeleteTrustedSender(ctx context.Context, q Querier, userID, id string) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM trusted_senders WHERE id = ? AND user_id = ?;`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsTrustedSender matches sender case-insensitively (column is NOCASE).
func IsTrustedSender(ctx context.Context, q Querier, userID, sender string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM trusted_senders WHERE user_id = ? AND sender_email = ? LIMIT 1;`,
		userID, sender,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
