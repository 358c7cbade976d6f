package store

import (
	"context"
	"database/sql"
	"fmt"

	"havenjob-engine/internal/domain"
)

// InsertStatusChange appends to the audit trail. Rows are never updated.
func InsertStatusChange(ctx context.Context, q Querier, c domain.StatusChange) error {
	var old any
	if c.OldStatus != nil {
		old = string(*c.OldStatus)
	}
	_, err := q.ExecContext(ctx, `
INSERT INTO application_status_history(id, application_id, old_status, new_status, changed_by, changed_at)
VALUES(?,?,?,?,?,?);`,
		c.ID, c.ApplicationID, old, string(c.NewStatus), string(c.ChangedBy), formatTime(c.ChangedAt),
	)
	if err != nil {
		return fmt.Errorf("insert status change: %w", err)
	}
	return nil
}

func ListStatusChanges(ctx context.Context, q Querier, applicationID string) ([]domain.StatusChange, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, application_id, old_status, new_status, changed_by, changed_at
FROM application_status_history
WHERE application_id = ?
ORDER BY changed_at ASC, rowid ASC;`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StatusChange{}
	for rows.Next() {
		var (
			c                 domain.StatusChange
			old               sql.NullString
			newStatus, by, at string
		)
		if err := rows.Scan(&c.ID, &c.ApplicationID, &old, &newStatus, &by, &at); err != nil {
			return nil, err
		}
		if old.Valid {
			s := domain.Status(old.String)
			c.OldStatus = &s
		}
		c.NewStatus = domain.Status(newStatus)
		c.ChangedBy = domain.ChangedBy(by)
		c.ChangedAt = parseTime(at)
		out = append(out, c)
	}
	return out, rows.Err()
}
