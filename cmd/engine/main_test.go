package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"havenjob-engine/internal/config"
	"havenjob-engine/internal/testutil"
)

func TestShutdownHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remote     string
		token      string
		wantStatus int
		wantStop   bool
	}{
		{name: "remote caller", remote: "203.0.113.9:4000", token: "secret", wantStatus: http.StatusForbidden},
		{name: "missing token", remote: "127.0.0.1:4000", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", remote: "127.0.0.1:4000", token: "nope", wantStatus: http.StatusUnauthorized},
		{name: "ok", remote: "[::1]:4000", token: "secret", wantStatus: http.StatusOK, wantStop: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stopped := false
			h := shutdownHandler("secret", func() { stopped = true })

			req := httptest.NewRequest(http.MethodPost, "/shutdown", nil)
			req.RemoteAddr = tt.remote
			if tt.token != "" {
				req.Header.Set("X-Shutdown-Token", tt.token)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus || stopped != tt.wantStop {
				t.Fatalf("status=%d stopped=%v, want %d %v", rr.Code, stopped, tt.wantStatus, tt.wantStop)
			}
		})
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := acquireLock(dir)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	defer first.Unlock()

	if _, err := acquireLock(dir); err == nil {
		t.Fatalf("second lock should fail while the first is held")
	}
}

func TestShutdownTokenFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HAVENJOB_SHUTDOWN_TOKEN", "")

	tok, err := shutdownToken(dir)
	if err != nil {
		t.Fatalf("shutdownToken: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, tokenFileName))
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if strings.TrimSpace(string(b)) != tok || len(tok) != 64 {
		t.Fatalf("token file %q, token %q", b, tok)
	}

	t.Setenv("HAVENJOB_SHUTDOWN_TOKEN", "fixed")
	if tok, _ := shutdownToken(dir); tok != "fixed" {
		t.Fatalf("env token ignored: %q", tok)
	}
}

func TestConfiguredNotifierFollowsConfig(t *testing.T) {
	db := testutil.OpenDB(t)
	u := testutil.SeedUser(t, db, "fwd@in.havenjob.app")

	cfg := config.Default()
	cfg.Notifications.ApplicationCreatedTitle = "Logged!"
	n := configuredNotifier{cfg: func() config.Config { return cfg }}

	got, err := n.NotifyApplicationCreated(context.Background(), db, u.ID, "app-1", nil, nil)
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.Title != "Logged!" {
		t.Fatalf("title = %q", got.Title)
	}
}
