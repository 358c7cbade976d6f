package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"havenjob-engine/internal/config"
	"havenjob-engine/internal/domain"
	"havenjob-engine/internal/emailpoll"
	"havenjob-engine/internal/events"
	"havenjob-engine/internal/extract"
	"havenjob-engine/internal/httpapi"
	"havenjob-engine/internal/ingest"
	"havenjob-engine/internal/ledger"
	"havenjob-engine/internal/notify"
	"havenjob-engine/internal/ratelimit"
	"havenjob-engine/internal/secrets"
	"havenjob-engine/internal/store"
	"havenjob-engine/internal/trust"
	"havenjob-engine/internal/users"
)

func main() {
	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("HAVENJOB_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	lock, err := acquireLock(dataDir)
	if err != nil {
		log.Fatalf("level=error msg=\"data dir lock failed\" dir=%s err=%q", dataDir, err)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		config.OverlayEnv(&cfg)
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if _, vr := config.NormalizeAndValidate(cfg); !vr.OK() {
		log.Fatalf("config invalid (%s): %v", userCfgPath, vr.Errors)
	}
	cfgVal.Store(cfg)
	current := func() config.Config { return cfgVal.Load().(config.Config) }

	dbPath := filepath.Join(dataDir, "havenjob.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	tr := trust.Store{DB: db.Pool}
	l := &ledger.Ledger{DB: db.Pool, Notifier: configuredNotifier{cfg: current}, Events: hub}
	pipeline := &ingest.Pipeline{
		Trust:       tr,
		Extractor:   extract.Rules{},
		Ledger:      l,
		DedupByHash: func() bool { return current().Ledger.DedupByContentHash },
	}
	poller := &emailpoll.Poller{
		Pipeline: pipeline,
		Config:   current,
		Password: secrets.IMAPPassword,
		Events:   hub,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := httpapi.NewMux(httpapi.Deps{
		DB:              db.Pool,
		Hub:             hub,
		CfgVal:          &cfgVal,
		UserCfgPath:     userCfgPath,
		LoadCfg:         loadCfg,
		Users:           users.Registry{DB: db.Pool, Domain: cfg.App.ForwardingDomain},
		Trust:           tr,
		Ledger:          l,
		Inbox:           notify.Inbox{DB: db.Pool},
		Pipeline:        pipeline,
		Poller:          poller,
		WebhookLimiter:  ratelimit.NewKeyLimiter(cfg.Webhook.RatePerSec, cfg.Webhook.Burst),
		SetIMAPPassword: secrets.SetIMAPPassword,
		RunPoll:         func(context.Context) (emailpoll.Summary, error) { return poller.RunOnce(ctx) },
	})

	token, err := shutdownToken(dataDir)
	if err != nil {
		log.Fatalf("shutdown token: %v", err)
	}
	mux.HandleFunc("POST /shutdown", shutdownHandler(token, cancel))

	addr := cfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("level=info msg=\"engine listening\" addr=http://%s db=%s config=%s", addr, dbPath, userCfgPath)

	srv := &http.Server{
		Handler:           httpapi.Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("level=error msg=\"engine stopped\" err=%q", err)
		return
	}
	if err := store.Checkpoint(context.Background(), db.Pool); err != nil {
		log.Printf("level=warn msg=\"final checkpoint failed\" err=%q", err)
	}
	log.Printf("level=info msg=\"engine stopped\"")
}

// configuredNotifier reads the notification texts from the live config on
// every call so edits apply without a restart.
type configuredNotifier struct {
	cfg func() config.Config
}

func (n configuredNotifier) NotifyApplicationCreated(ctx context.Context, q store.Querier, userID, applicationID string, title, message *string) (domain.Notification, error) {
	c := n.cfg().Notifications
	d := notify.Dispatcher{CreatedTitle: c.ApplicationCreatedTitle, CreatedMessage: c.ApplicationCreatedMessage}
	return d.NotifyApplicationCreated(ctx, q, userID, applicationID, title, message)
}
