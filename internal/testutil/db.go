// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/store"
)

// OpenDB opens a migrated SQLite database under t.TempDir.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()

	d, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := store.Migrate(d.Pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d.Pool
}

// SeedUser inserts a user with the given forwarding address and trusted senders.
func SeedUser(t testing.TB, db *sql.DB, forwarding string, senders ...string) domain.User {
	t.Helper()

	ctx := context.Background()
	u := domain.User{
		ID:                uuid.NewString(),
		Email:             uuid.NewString() + "@example.com",
		ForwardingAddress: forwarding,
		CreatedAt:         time.Now().UTC(),
	}
	if err := store.InsertUser(ctx, db, u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	for _, s := range senders {
		err := store.InsertTrustedSender(ctx, db, domain.TrustedSender{
			ID:          uuid.NewString(),
			UserID:      u.ID,
			SenderEmail: s,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("insert trusted sender: %v", err)
		}
	}
	return u
}
