package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"havenjob-engine/internal/domain"
)

const applicationCols = `id, user_id, company_name, job_title, date_applied, deadline, follow_up_date,
  status, source, job_url, location, salary_min, salary_max, salary_currency, notes,
  is_needs_review, confidence_score, parse_metadata, raw_email_hash, created_at, updated_at, deleted_at`

type scanner interface {
	Scan(dest ...any) error
}

// InsertApplication writes a new row. A clash on (user_id, raw_email_hash)
// comes back as ErrDuplicate.
func InsertApplication(ctx context.Context, q Querier, a domain.Application) error {
	var meta any
	if len(a.ParseMetadata) > 0 {
		meta = string(a.ParseMetadata)
	}
	var salMin, salMax any
	if a.SalaryMin != nil {
		salMin = *a.SalaryMin
	}
	if a.SalaryMax != nil {
		salMax = *a.SalaryMax
	}
	var conf any
	if a.Confidence != nil {
		conf = *a.Confidence
	}

	_, err := q.ExecContext(ctx, `
INSERT INTO applications(`+applicationCols+`)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		a.ID, a.UserID, a.CompanyName, a.JobTitle, formatTime(a.DateApplied),
		nullTime(a.Deadline), nullTime(a.FollowUpDate),
		string(a.Status), nullString(a.Source), nullString(a.JobURL), nullString(a.Location),
		salMin, salMax, nullString(a.SalaryCurrency), nullString(a.Notes),
		boolInt(a.NeedsReview), conf, meta, nullString(a.RawEmailHash),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt), nullTime(a.DeletedAt),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func GetApplication(ctx context.Context, q Querier, id string) (domain.Application, error) {
	a, err := scanApplication(q.QueryRowContext(ctx,
		`SELECT `+applicationCols+` FROM applications WHERE id = ? LIMIT 1;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Application{}, ErrNotFound
	}
	return a, err
}

func ApplicationByHash(ctx context.Context, q Querier, userID, hash string) (domain.Application, error) {
	a, err := scanApplication(q.QueryRowContext(ctx,
		`SELECT `+applicationCols+` FROM applications WHERE user_id = ? AND raw_email_hash = ? LIMIT 1;`,
		userID, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Application{}, ErrNotFound
	}
	return a, err
}

// ListApplications returns the user's live applications, newest application date first.
func ListApplications(ctx context.Context, q Querier, userID string) ([]domain.Application, error) {
	rows, err := q.QueryContext(ctx, `
SELECT `+applicationCols+`
FROM applications
WHERE user_id = ? AND deleted_at IS NULL
ORDER BY date_applied DESC, created_at DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func UpdateApplicationStatus(ctx context.Context, q Querier, id string, status domain.Status, at time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ?;`,
		string(status), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanApplication(s scanner) (domain.Application, error) {
	var (
		a                                  domain.Application
		dateApplied, created, updated      string
		deadline, followUp, deleted        sql.NullString
		source, jobURL, location, currency sql.NullString
		notes, meta, hash                  sql.NullString
		salMin, salMax                     sql.NullInt64
		needsReview                        int
		conf                               sql.NullFloat64
		status                             string
	)
	if err := s.Scan(
		&a.ID, &a.UserID, &a.CompanyName, &a.JobTitle, &dateApplied, &deadline, &followUp,
		&status, &source, &jobURL, &location, &salMin, &salMax, &currency, &notes,
		&needsReview, &conf, &meta, &hash, &created, &updated, &deleted,
	); err != nil {
		return domain.Application{}, err
	}

	a.DateApplied = parseTime(dateApplied)
	a.Deadline = parseNullTime(deadline)
	a.FollowUpDate = parseNullTime(followUp)
	a.Status = domain.Status(status)
	a.Source = stringPtr(source)
	a.JobURL = stringPtr(jobURL)
	a.Location = stringPtr(location)
	if salMin.Valid {
		v := int(salMin.Int64)
		a.SalaryMin = &v
	}
	if salMax.Valid {
		v := int(salMax.Int64)
		a.SalaryMax = &v
	}
	a.SalaryCurrency = stringPtr(currency)
	a.Notes = stringPtr(notes)
	a.NeedsReview = needsReview != 0
	if conf.Valid {
		v := conf.Float64
		a.Confidence = &v
	}
	if meta.Valid && meta.String != "" {
		a.ParseMetadata = []byte(meta.String)
	}
	a.RawEmailHash = stringPtr(hash)
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	a.DeletedAt = parseNullTime(deleted)
	return a, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
