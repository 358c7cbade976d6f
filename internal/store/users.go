package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"havenjob-engine/internal/domain"
)

func InsertUser(ctx context.Context, q Querier, u domain.User) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO users(id, email, forwarding_address, created_at)
VALUES(?,?,?,?);`,
		u.ID, u.Email, u.ForwardingAddress, formatTime(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func GetUser(ctx context.Context, q Querier, id string) (domain.User, error) {
	return scanUser(q.QueryRowContext(ctx, `
SELECT id, email, forwarding_address, created_at
FROM users WHERE id = ? LIMIT 1;`, id))
}

// UserByForwardingAddress matches case-insensitively (column is NOCASE).
func UserByForwardingAddress(ctx context.Context, q Querier, addr string) (domain.User, error) {
	return scanUser(q.QueryRowContext(ctx, `
SELECT id, email, forwarding_address, created_at
FROM users WHERE forwarding_address = ? LIMIT 1;`, addr))
}

func ForwardingAddressTaken(ctx context.Context, q Querier, addr string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE forwarding_address = ? LIMIT 1;`, addr,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var created string
	err := row.Scan(&u.ID, &u.Email, &u.ForwardingAddress, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}
