// Package users registers ledger owners and hands out their forwarding addresses.
package users

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/store"
)

const maxForwardingAttempts = 10

var (
	ErrInvalidEmail        = errors.New("users: email is required")
	ErrEmailTaken          = errors.New("users: email already registered")
	ErrForwardingTaken     = errors.New("users: forwarding address already in use")
	ErrForwardingExhausted = errors.New("users: could not allocate a unique forwarding address")
	ErrNotFound            = errors.New("users: not found")
)

type Registry struct {
	DB     *sql.DB
	Domain string

	// Token returns the local part of a generated forwarding address.
	// Nil means 8 random bytes, hex encoded.
	Token func() (string, error)
}

// Register creates a user. When forwarding is empty an address under
// r.Domain is generated.
func (r Registry) Register(ctx context.Context, email, forwarding string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	forwarding = strings.ToLower(strings.TrimSpace(forwarding))

	if forwarding == "" {
		addr, err := r.allocate(ctx)
		if err != nil {
			return domain.User{}, err
		}
		forwarding = addr
	} else {
		taken, err := store.ForwardingAddressTaken(ctx, r.DB, forwarding)
		if err != nil {
			return domain.User{}, err
		}
		if taken {
			return domain.User{}, ErrForwardingTaken
		}
	}

	u := domain.User{
		ID:                uuid.NewString(),
		Email:             email,
		ForwardingAddress: forwarding,
		CreatedAt:         time.Now().UTC(),
	}
	if err := store.InsertUser(ctx, r.DB, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.User{}, duplicateCause(ctx, r.DB, forwarding)
		}
		return domain.User{}, err
	}
	return u, nil
}

// duplicateCause names which unique column an insert collided on. The
// forwarding address can be claimed between the availability check and the
// insert, so it is checked again before blaming the email.
func duplicateCause(ctx context.Context, q store.Querier, forwarding string) error {
	taken, err := store.ForwardingAddressTaken(ctx, q, forwarding)
	if err != nil {
		return err
	}
	if taken {
		return ErrForwardingTaken
	}
	return ErrEmailTaken
}

func (r Registry) Get(ctx context.Context, id string) (domain.User, error) {
	u, err := store.GetUser(ctx, r.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrNotFound
	}
	return u, err
}

func (r Registry) allocate(ctx context.Context) (string, error) {
	gen := r.Token
	if gen == nil {
		gen = randomLocalPart
	}
	for i := 0; i < maxForwardingAttempts; i++ {
		local, err := gen()
		if err != nil {
			return "", fmt.Errorf("generate forwarding address: %w", err)
		}
		addr := strings.ToLower(local + "@" + r.Domain)
		taken, err := store.ForwardingAddressTaken(ctx, r.DB, addr)
		if err != nil {
			return "", err
		}
		if !taken {
			return addr, nil
		}
	}
	return "", ErrForwardingExhausted
}

func randomLocalPart() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
