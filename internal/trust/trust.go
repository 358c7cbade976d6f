// Package trust decides whether an inbound email comes from a sender the
// recipient's owner has allow-listed, and manages that allow-list.
package trust

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/store"
)

var (
	ErrInvalidSender   = errors.New("trust: sender email is required")
	ErrDuplicateSender = errors.New("trust: sender already trusted")
	ErrNotFound        = errors.New("trust: sender not found")
)

type Store struct {
	DB *sql.DB
}

// Verify resolves recipient to the user owning that forwarding address and
// reports whether sender is on that user's list. Unknown recipients and
// untrusted senders are ok=false with a nil error; err is storage failure only.
func (s Store) Verify(ctx context.Context, recipient, sender string) (userID string, ok bool, err error) {
	recipient = NormalizeAddress(recipient)
	sender = NormalizeAddress(sender)
	if recipient == "" || sender == "" {
		return "", false, nil
	}

	u, err := store.UserByForwardingAddress(ctx, s.DB, recipient)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	trusted, err := store.IsTrustedSender(ctx, s.DB, u.ID, sender)
	if err != nil {
		return "", false, err
	}
	if !trusted {
		return "", false, nil
	}
	return u.ID, true, nil
}

func (s Store) Add(ctx context.Context, userID, email, label string) (domain.TrustedSender, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.TrustedSender{}, ErrInvalidSender
	}

	ts := domain.TrustedSender{
		ID:          uuid.NewString(),
		UserID:      userID,
		SenderEmail: email,
		CreatedAt:   time.Now().UTC(),
	}
	if l := strings.TrimSpace(label); l != "" {
		ts.Label = &l
	}

	err := store.InsertTrustedSender(ctx, s.DB, ts)
	if errors.Is(err, store.ErrDuplicate) {
		return domain.TrustedSender{}, ErrDuplicateSender
	}
	if err != nil {
		return domain.TrustedSender{}, err
	}
	return ts, nil
}

func (s Store) List(ctx context.Context, userID string) ([]domain.TrustedSender, error) {
	return store.ListTrustedSenders(ctx, s.DB, userID)
}

func (s Store) Remove(ctx context.Context, userID, id string) error {
	err := store.DeleteTrustedSender(ctx, s.DB, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// NormalizeAddress reduces `Name <addr>` forms to the bare lower-cased address.
func NormalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if a, err := mail.ParseAddress(s); err == nil {
		return strings.ToLower(a.Address)
	}
	return strings.ToLower(strings.Trim(s, "<> "))
}
