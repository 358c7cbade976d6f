// Package emailpoll reads forwarded mail from an IMAP mailbox and feeds it
// through the same ingest pipeline as the webhook.
package emailpoll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/emersion/go-imap/v2"

	"havenjob-engine/internal/config"
	"havenjob-engine/internal/events"
	"havenjob-engine/internal/ingest"
	"havenjob-engine/internal/scheduler"
)

var (
	ErrAlreadyRunning = errors.New("email poll already running")
	ErrDisabled       = errors.New("email polling is disabled")
)

type Status struct {
	LastRunAt     string `json:"last_run_at"`
	LastOkAt      string `json:"last_ok_at"`
	LastError     string `json:"last_error"`
	LastProcessed int    `json:"last_processed"`
	LastCreated   int    `json:"last_created"`
	Running       bool   `json:"running"`
}

type Summary struct {
	Fetched   int `json:"fetched"`
	Processed int `json:"processed"`
	Verified  int `json:"verified"`
	Created   int `json:"created"`
}

type Processor interface {
	Process(ctx context.Context, in ingest.InboundEmail) (ingest.Result, error)
}

type DialFunc func(ctx context.Context, cfg config.Config, password string) (Mailbox, error)

type Poller struct {
	Pipeline Processor
	Config   func() config.Config
	Password func(cfg config.Config) (string, error)
	Events   events.Publisher

	// Dial defaults to OpenMailbox against cfg.IMAPAddr().
	Dial DialFunc

	running atomic.Bool
	status  atomic.Value // Status
}

func (p *Poller) Status() Status {
	st, _ := p.status.Load().(Status)
	st.Running = p.running.Load()
	return st
}

// Run polls on the configured interval until ctx ends.
func (p *Poller) Run(ctx context.Context) {
	interval := func() time.Duration {
		return time.Duration(p.Config().Polling.EmailSeconds) * time.Second
	}
	scheduler.Every(ctx, interval, "poll", func(ctx context.Context) error {
		if !p.Config().Email.Enabled {
			return nil
		}
		_, err := p.RunOnce(ctx)
		if errors.Is(err, ErrAlreadyRunning) {
			return nil
		}
		return err
	})
}

// RunOnce fetches unseen messages, ingests each one and marks the ones it
// finished with as \Seen. A message that fails to parse is still marked, so
// it is not retried forever; a storage failure stops the run and leaves the
// failing message unseen.
func (p *Poller) RunOnce(ctx context.Context) (Summary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRunning
	}
	defer p.running.Store(false)

	start := time.Now()
	sum, err := p.runOnce(ctx)
	p.record(start, sum, err)

	if err != nil {
		log.Printf("[poll] level=error msg=\"email poll failed\" fetched=%d processed=%d err=%q", sum.Fetched, sum.Processed, err)
	} else {
		log.Printf("[poll] level=info msg=\"email poll done\" fetched=%d processed=%d verified=%d created=%d dur_ms=%d",
			sum.Fetched, sum.Processed, sum.Verified, sum.Created, time.Since(start).Milliseconds())
	}
	if p.Events != nil {
		p.Events.Publish(events.MakeEvent("", events.TypeIngestFinished, 1, sum))
	}
	return sum, err
}

func (p *Poller) runOnce(ctx context.Context) (Summary, error) {
	var sum Summary

	cfg := p.Config()
	if !cfg.Email.Enabled {
		return sum, ErrDisabled
	}
	if cfg.Email.IMAPHost == "" || cfg.Email.Username == "" {
		return sum, errors.New("email enabled but missing imap_host/username")
	}
	password, err := p.Password(cfg)
	if err != nil {
		return sum, err
	}

	dial := p.Dial
	if dial == nil {
		dial = dialIMAP
	}
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	mb, err := dial(ctx, cfg, password)
	if err != nil {
		return sum, err
	}
	defer mb.Close()

	msgs, err := mb.FetchUnseen(ctx, cfg.Email.MaxPerPoll)
	if err != nil {
		return sum, err
	}
	sum.Fetched = len(msgs)

	done := make([]imap.UID, 0, len(msgs))
	var runErr error
	for _, m := range msgs {
		in, err := ParseMessage(m.Raw)
		if err != nil {
			log.Printf("[poll] level=warn msg=\"unparseable message\" uid=%d err=%q", m.UID, err)
			done = append(done, m.UID)
			continue
		}

		res, err := p.Pipeline.Process(ctx, in)
		if err != nil {
			runErr = fmt.Errorf("ingest uid %d: %w", m.UID, err)
			break
		}
		done = append(done, m.UID)
		sum.Processed++
		if res.Verified {
			sum.Verified++
		}
		if res.Created {
			sum.Created++
		}
	}

	if err := mb.MarkSeen(done); err != nil && runErr == nil {
		runErr = err
	}
	return sum, runErr
}

func (p *Poller) record(start time.Time, sum Summary, err error) {
	prev, _ := p.status.Load().(Status)
	next := Status{
		LastRunAt:     start.UTC().Format(time.RFC3339),
		LastOkAt:      prev.LastOkAt,
		LastProcessed: sum.Processed,
		LastCreated:   sum.Created,
	}
	if err != nil {
		next.LastError = err.Error()
	} else {
		next.LastOkAt = time.Now().UTC().Format(time.RFC3339)
	}
	p.status.Store(next)
}

func dialIMAP(ctx context.Context, cfg config.Config, password string) (Mailbox, error) {
	return OpenMailbox(ctx, cfg.IMAPAddr(), cfg.Email.Username, password, cfg.Email.Mailbox)
}
