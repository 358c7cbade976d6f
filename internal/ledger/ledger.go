// Package ledger owns application records: creation from extracted email
// facts, manual entry, and audited status transitions.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/events"
	"havenjob-engine/internal/store"
)

var (
	ErrNotFound      = errors.New("ledger: application not found")
	ErrInvalidStatus = errors.New("ledger: invalid status")
	ErrInvalidActor  = errors.New("ledger: invalid changed_by")
	ErrInvalidInput  = errors.New("ledger: invalid application")
)

// Notifier records the creation notification inside the creating transaction.
type Notifier interface {
	NotifyApplicationCreated(ctx context.Context, q store.Querier, userID, applicationID string, title, message *string) (domain.Notification, error)
}

type Ledger struct {
	DB       *sql.DB
	Notifier Notifier

	// Events receives post-commit events. Optional.
	Events events.Publisher

	// Now defaults to time.Now.
	Now func() time.Time
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *Ledger) publish(userID, typ string, data any) {
	if l.Events == nil {
		return
	}
	l.Events.Publish(events.MakeUserEvent("", userID, typ, 1, data))
}

// CreateFromExtraction turns extracted email facts into an Application.
//
// Missing company or title is not an error: nothing is written and created is
// false with a zero Application. When hash is set and the user already has a
// record for it, that record is returned with created=false.
func (l *Ledger) CreateFromExtraction(ctx context.Context, userID string, ext domain.Extraction, hash *string) (domain.Application, bool, error) {
	company := trimmed(ext.CompanyName)
	title := trimmed(ext.JobTitle)
	if company == "" || title == "" {
		return domain.Application{}, false, nil
	}

	now := l.now()
	applied := now
	if ext.DateApplied != nil {
		applied = asUTC(*ext.DateApplied)
	}

	src := domain.SourceEmail
	app := domain.Application{
		ID:           uuid.NewString(),
		UserID:       userID,
		CompanyName:  truncate(company, domain.MaxCompanyLen),
		JobTitle:     truncate(title, domain.MaxTitleLen),
		DateApplied:  applied,
		Status:       domain.StatusApplied,
		Source:       &src,
		Confidence:   ext.Confidence,
		RawEmailHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var (
		created bool
		note    domain.Notification
	)
	err := store.WithTx(ctx, l.DB, func(tx *sql.Tx) error {
		if hash != nil {
			existing, err := store.ApplicationByHash(ctx, tx, userID, *hash)
			if err == nil {
				app = existing
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		err := store.InsertApplication(ctx, tx, app)
		if errors.Is(err, store.ErrDuplicate) && hash != nil {
			existing, err := store.ApplicationByHash(ctx, tx, userID, *hash)
			if err != nil {
				return fmt.Errorf("reload duplicate application: %w", err)
			}
			app = existing
			return nil
		}
		if err != nil {
			return err
		}

		if l.Notifier != nil {
			n, err := l.Notifier.NotifyApplicationCreated(ctx, tx, userID, app.ID, nil, nil)
			if err != nil {
				return err
			}
			note = n
		}
		created = true
		return nil
	})
	if err != nil {
		return domain.Application{}, false, err
	}

	if created {
		log.Printf("level=info msg=\"application created\" user_id=%s application_id=%s company=%q", userID, app.ID, app.CompanyName)
		l.publish(userID, events.TypeApplicationCreated, app)
		if note.ID != "" {
			l.publish(userID, events.TypeNotificationCreated, note)
		}
	}
	return app, created, nil
}

// TransitionStatus moves an application to status. Moving to the current
// status writes nothing and returns the record unchanged.
func (l *Ledger) TransitionStatus(ctx context.Context, applicationID string, status domain.Status, by domain.ChangedBy) (domain.Application, error) {
	if !status.Valid() {
		return domain.Application{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if !by.Valid() {
		return domain.Application{}, fmt.Errorf("%w: %q", ErrInvalidActor, by)
	}

	var (
		app     domain.Application
		change  domain.StatusChange
		changed bool
	)
	err := store.WithTx(ctx, l.DB, func(tx *sql.Tx) error {
		cur, err := store.GetApplication(ctx, tx, applicationID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		app = cur
		if cur.Status == status {
			return nil
		}

		at := l.now()
		if err := store.UpdateApplicationStatus(ctx, tx, cur.ID, status, at); err != nil {
			return err
		}
		old := cur.Status
		change = domain.StatusChange{
			ID:            uuid.NewString(),
			ApplicationID: cur.ID,
			OldStatus:     &old,
			NewStatus:     status,
			ChangedBy:     by,
			ChangedAt:     at,
		}
		if err := store.InsertStatusChange(ctx, tx, change); err != nil {
			return err
		}
		app.Status = status
		app.UpdatedAt = at
		changed = true
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}

	if changed {
		log.Printf("level=info msg=\"status changed\" application_id=%s old=%q new=%q by=%s", app.ID, *change.OldStatus, status, by)
		l.publish(app.UserID, events.TypeApplicationStatusChanged, change)
	}
	return app, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (domain.Application, error) {
	a, err := store.GetApplication(ctx, l.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Application{}, ErrNotFound
	}
	return a, err
}

func (l *Ledger) List(ctx context.Context, userID string) ([]domain.Application, error) {
	return store.ListApplications(ctx, l.DB, userID)
}

func (l *Ledger) History(ctx context.Context, applicationID string) ([]domain.StatusChange, error) {
	return store.ListStatusChanges(ctx, l.DB, applicationID)
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// asUTC reads the wall clock of t as UTC. Extracted dates carry no zone.
func asUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
