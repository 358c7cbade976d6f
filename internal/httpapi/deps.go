package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"havenjob-engine/internal/config"
	"havenjob-engine/internal/emailpoll"
	"havenjob-engine/internal/events"
	"havenjob-engine/internal/ingest"
	"havenjob-engine/internal/ledger"
	"havenjob-engine/internal/notify"
	"havenjob-engine/internal/ratelimit"
	"havenjob-engine/internal/trust"
	"havenjob-engine/internal/users"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Users    users.Registry
	Trust    trust.Store
	Ledger   *ledger.Ledger
	Inbox    notify.Inbox
	Pipeline *ingest.Pipeline
	Poller   *emailpoll.Poller

	// WebhookLimiter throttles the inbound webhook per client host.
	WebhookLimiter *ratelimit.KeyLimiter

	// SetIMAPPassword stores the mailbox password (keyring in production).
	SetIMAPPassword func(account, password string) error

	// RunPoll triggers one IMAP pass in the background (inject for testability).
	RunPoll func(ctx context.Context) (emailpoll.Summary, error)
}

func (d Deps) cfg() config.Config {
	return d.CfgVal.Load().(config.Config)
}
