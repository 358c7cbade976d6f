package httpapi

import (
	"net/http"
	"time"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", HealthHandler{DB: d.DB, Hub: d.Hub}.Health)

	// Inbound email webhook
	wh := WebhookHandler{Pipeline: d.Pipeline}
	webhook := Chain(http.HandlerFunc(wh.Inbound),
		RateLimit(d.WebhookLimiter, func() (float64, int) {
			c := d.cfg()
			return c.Webhook.RatePerSec, c.Webhook.Burst
		}),
		MaxBody(func() int64 { return d.cfg().Webhook.MaxBodyBytes }),
		Deadline(func() time.Duration { return time.Duration(d.cfg().Webhook.TimeoutSeconds) * time.Second }),
	)
	mux.Handle("POST /api/email/webhook", webhook)

	// Users
	uh := UsersHandler{Users: d.Users}
	mux.HandleFunc("POST /api/users", uh.Register)
	mux.Handle("GET /api/users/me", RequireUser(http.HandlerFunc(uh.Me)))

	// Trusted senders
	sh := SendersHandler{Trust: d.Trust}
	mux.Handle("GET /api/trusted-senders", RequireUser(http.HandlerFunc(sh.List)))
	mux.Handle("POST /api/trusted-senders", RequireUser(http.HandlerFunc(sh.Add)))
	mux.Handle("DELETE /api/trusted-senders/{id}", RequireUser(http.HandlerFunc(sh.Delete)))

	// Applications
	ah := ApplicationsHandler{Ledger: d.Ledger}
	mux.Handle("GET /api/applications", RequireUser(http.HandlerFunc(ah.List)))
	mux.Handle("POST /api/applications", RequireUser(http.HandlerFunc(ah.Create)))
	mux.Handle("GET /api/applications/{id}", RequireUser(http.HandlerFunc(ah.Get)))
	mux.Handle("PATCH /api/applications/{id}", RequireUser(http.HandlerFunc(ah.UpdateStatus)))
	mux.Handle("GET /api/applications/{id}/history", RequireUser(http.HandlerFunc(ah.History)))

	// Notifications
	nh := NotificationsHandler{Inbox: d.Inbox}
	mux.Handle("GET /api/notifications", RequireUser(http.HandlerFunc(nh.List)))
	mux.Handle("PATCH /api/notifications/{id}", RequireUser(http.HandlerFunc(nh.MarkRead)))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
		Hub:         d.Hub,
	}
	mux.Handle("GET /config", LocalOnly(http.HandlerFunc(ch.Get)))
	mux.Handle("PUT /config", LocalOnly(http.HandlerFunc(ch.Put)))
	mux.Handle("GET /config/path", LocalOnly(http.HandlerFunc(ch.Path)))
	mux.Handle("GET /config/validate", LocalOnly(http.HandlerFunc(ch.Validate)))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sech := SecretsHandler{CfgVal: d.CfgVal, Set: d.SetIMAPPassword}
	mux.Handle("POST /api/secrets/imap", LocalOnly(http.HandlerFunc(sech.SetIMAPPassword)))

	// IMAP ingest
	runPoll := d.RunPoll
	if runPoll == nil {
		runPoll = d.Poller.RunOnce
	}
	ih := IngestHandler{CfgVal: d.CfgVal, Status: d.Poller.Status, RunPoll: runPoll}
	mux.HandleFunc("GET /ingest/status", ih.GetStatus)
	mux.Handle("POST /ingest/run", LocalOnly(http.HandlerFunc(ih.Run)))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("GET /events", eh.ServeSSE)

	// Maintenance
	dh := DBHandler{DB: d.DB}
	mux.Handle("POST /db/checkpoint", LocalOnly(http.HandlerFunc(dh.Checkpoint)))

	return mux
}

// Handler wraps h in the standard middleware chain.
func Handler(h http.Handler) http.Handler {
	return Chain(h, RequestID, Recover, AccessLog, Cors)
}
