package notify

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/store"
	"havenjob-engine/internal/testutil"
)

func seedApp(t *testing.T, q store.Querier, userID string) string {
	t.Helper()
	src := domain.SourceEmail
	now := time.Now().UTC()
	a := domain.Application{
		ID:          uuid.NewString(),
		UserID:      userID,
		CompanyName: "Acme",
		JobTitle:    "Engineer",
		DateApplied: now,
		Status:      domain.StatusApplied,
		Source:      &src,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.InsertApplication(context.Background(), q, a); err != nil {
		t.Fatalf("insert application: %v", err)
	}
	return a.ID
}

func TestNotifyApplicationCreatedDefaults(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "fwd@havenjob.app")
	appID := seedApp(t, db, u.ID)

	n, err := Dispatcher{}.NotifyApplicationCreated(ctx, db, u.ID, appID, nil, nil)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}

	got, err := store.GetNotification(ctx, db, n.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Type != "application_created" || got.IsRead {
		t.Fatalf("unexpected notification %+v", got)
	}
	if got.Title != DefaultCreatedTitle || got.Message == nil || *got.Message != DefaultCreatedMessage {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if got.RelatedEntityType == nil || *got.RelatedEntityType != "application" ||
		got.RelatedEntityID == nil || *got.RelatedEntityID != appID {
		t.Fatalf("related entity mismatch: %+v", got)
	}
}

func TestNotifyApplicationCreatedOverrides(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "fwd@havenjob.app")
	appID := seedApp(t, db, u.ID)

	d := Dispatcher{CreatedTitle: "Configured", CreatedMessage: "Configured message"}
	n, err := d.NotifyApplicationCreated(ctx, db, u.ID, appID, nil, nil)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if n.Title != "Configured" || *n.Message != "Configured message" {
		t.Fatalf("configured defaults not used: %+v", n)
	}

	title, msg := "Explicit", "Explicit message"
	n, err = d.NotifyApplicationCreated(ctx, db, u.ID, appID, &title, &msg)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if n.Title != title || *n.Message != msg {
		t.Fatalf("explicit values not used: %+v", n)
	}
}

func TestNotifyRollsBackWithTransaction(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, db, "fwd@havenjob.app")

	var appID string
	err := store.WithTx(ctx, db, func(tx *sql.Tx) error {
		appID = seedApp(t, tx, u.ID)
		if _, err := (Dispatcher{}).NotifyApplicationCreated(ctx, tx, u.ID, appID, nil, nil); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}

	ns, err := store.NotificationsFor(ctx, db, domain.RelatedEntityApplication, appID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ns) != 0 {
		t.Fatalf("notification survived rollback: %+v", ns)
	}
}
