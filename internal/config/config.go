package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Host             string `yaml:"host"`
		Port             int    `yaml:"port"`
		DataDir          string `yaml:"data_dir"`
		ForwardingDomain string `yaml:"forwarding_domain"`
	} `yaml:"app"`

	Webhook struct {
		MaxBodyBytes   int64   `yaml:"max_body_bytes"`
		RatePerSec     float64 `yaml:"rate_per_sec"`
		Burst          int     `yaml:"burst"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"webhook"`

	Email struct {
		Enabled    bool   `yaml:"enabled"`
		IMAPHost   string `yaml:"imap_host"`
		IMAPPort   int    `yaml:"imap_port"`
		Username   string `yaml:"username"`
		Mailbox    string `yaml:"mailbox"`
		MaxPerPoll int    `yaml:"max_per_poll"`

		// AppPassword is normally kept in the OS keyring, not in this file.
		AppPassword string `yaml:"app_password,omitempty" json:"-"`
	} `yaml:"email"`

	Polling struct {
		EmailSeconds int `yaml:"email_seconds"`
	} `yaml:"polling"`

	Ledger struct {
		DedupByContentHash bool `yaml:"dedup_by_content_hash"`
	} `yaml:"ledger"`

	Notifications struct {
		ApplicationCreatedTitle   string `yaml:"application_created_title"`
		ApplicationCreatedMessage string `yaml:"application_created_message"`
	} `yaml:"notifications"`
}

func Default() Config {
	var cfg Config
	cfg.App.Host = "127.0.0.1"
	cfg.App.Port = 38471
	cfg.App.DataDir = "."
	cfg.App.ForwardingDomain = "in.havenjob.app"

	cfg.Webhook.MaxBodyBytes = 1 << 20
	cfg.Webhook.RatePerSec = 5
	cfg.Webhook.Burst = 20
	cfg.Webhook.TimeoutSeconds = 15

	cfg.Email.IMAPPort = 993
	cfg.Email.Mailbox = "INBOX"
	cfg.Email.MaxPerPoll = 50

	cfg.Polling.EmailSeconds = 300

	cfg.Ledger.DedupByContentHash = true

	cfg.Notifications.ApplicationCreatedTitle = "New application logged"
	cfg.Notifications.ApplicationCreatedMessage = "An application was added from your forwarded email."
	return cfg
}

// Load reads path on top of Default, so keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr is host:port for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// IMAPAddr is host:port for the IMAP server, defaulting to 993.
func (c Config) IMAPAddr() string {
	addr := strings.TrimSpace(c.Email.IMAPHost)
	if strings.Contains(addr, ":") {
		return addr
	}
	port := c.Email.IMAPPort
	if port == 0 {
		port = 993
	}
	return fmt.Sprintf("%s:%d", addr, port)
}
