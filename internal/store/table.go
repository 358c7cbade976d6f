package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

var schemaV1 = []string{
	`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE COLLATE NOCASE,
  forwarding_address TEXT NOT NULL UNIQUE COLLATE NOCASE,
  created_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS trusted_senders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  sender_email TEXT NOT NULL COLLATE NOCASE,
  label TEXT,
  created_at TEXT NOT NULL,
  UNIQUE (user_id, sender_email)
);`,
	`
CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  company_name TEXT NOT NULL CHECK (length(company_name) > 0),
  job_title TEXT NOT NULL CHECK (length(job_title) > 0),
  date_applied TEXT NOT NULL,
  deadline TEXT,
  follow_up_date TEXT,
  status TEXT NOT NULL CHECK (status IN ('Applied','Under Review','Phone Screen','Interview','Offer','Accepted','Rejected','Withdrawn')),
  source TEXT,
  job_url TEXT,
  location TEXT,
  salary_min INTEGER,
  salary_max INTEGER,
  salary_currency TEXT,
  notes TEXT,
  is_needs_review INTEGER NOT NULL DEFAULT 0,
  confidence_score REAL,
  parse_metadata TEXT,
  raw_email_hash TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  deleted_at TEXT
);`,
	`
CREATE TABLE IF NOT EXISTS application_status_history (
  id TEXT PRIMARY KEY,
  application_id TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
  old_status TEXT,
  new_status TEXT NOT NULL,
  changed_by TEXT NOT NULL CHECK (changed_by IN ('user','email_parser','system')),
  changed_at TEXT NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT,
  is_read INTEGER NOT NULL DEFAULT 0,
  is_email_sent INTEGER NOT NULL DEFAULT 0,
  related_entity_type TEXT,
  related_entity_id TEXT,
  created_at TEXT NOT NULL
);`,

	// ---- indexes ----

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_user_raw_hash
ON applications(user_id, raw_email_hash)
WHERE raw_email_hash IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_applications_user_status ON applications(user_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_applications_user_date ON applications(user_id, date_applied DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_applications_user_follow_up ON applications(user_id, follow_up_date);`,
	`CREATE INDEX IF NOT EXISTS idx_history_application ON application_status_history(application_id, changed_at);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_read ON notifications(user_id, is_read);`,
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	for i, stmt := range schemaV1 {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate v1 stmt %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}
