package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a trimmed, lower-cased copy of cfg together
// with everything wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.App.Host = strings.TrimSpace(out.App.Host)
	out.App.ForwardingDomain = strings.ToLower(strings.Trim(strings.TrimSpace(out.App.ForwardingDomain), "@"))
	out.Email.IMAPHost = strings.TrimSpace(out.Email.IMAPHost)
	out.Email.Username = strings.TrimSpace(out.Email.Username)
	out.Email.Mailbox = strings.TrimSpace(out.Email.Mailbox)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if out.App.Host == "" {
		res.addErr("app.host is required")
	}
	if out.App.ForwardingDomain == "" {
		res.addErr("app.forwarding_domain is required")
	} else if !strings.Contains(out.App.ForwardingDomain, ".") || strings.ContainsAny(out.App.ForwardingDomain, " @/") {
		res.addErr("app.forwarding_domain %q is not a domain name", out.App.ForwardingDomain)
	}

	// webhook backpressure
	if out.Webhook.MaxBodyBytes <= 0 {
		res.addErr("webhook.max_body_bytes must be > 0")
	} else if out.Webhook.MaxBodyBytes < 4096 {
		res.addWarn("webhook.max_body_bytes is very low (%d); most emails will be rejected.", out.Webhook.MaxBodyBytes)
	}
	if out.Webhook.RatePerSec <= 0 {
		res.addErr("webhook.rate_per_sec must be > 0")
	}
	if out.Webhook.Burst <= 0 {
		res.addErr("webhook.burst must be > 0")
	}
	if out.Webhook.TimeoutSeconds <= 0 {
		res.addErr("webhook.timeout_seconds must be > 0")
	}

	// polling sanity
	if out.Polling.EmailSeconds <= 0 {
		res.addErr("polling.email_seconds must be > 0")
	} else if out.Polling.EmailSeconds < 10 {
		res.addWarn("polling.email_seconds is very low (%d) and may cause rate limits.", out.Polling.EmailSeconds)
	}

	// email required fields if enabled (password not required here; it’s in keychain)
	if out.Email.Enabled {
		if out.Email.IMAPHost == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if out.Email.Username == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if out.Email.Mailbox == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if out.Email.MaxPerPoll <= 0 {
			res.addErr("email.max_per_poll must be > 0 when email.enabled=true")
		}
	}

	if !out.Ledger.DedupByContentHash {
		res.addWarn("ledger.dedup_by_content_hash is false; redelivered emails will create duplicate applications.")
	}
	if strings.TrimSpace(out.Notifications.ApplicationCreatedTitle) == "" {
		res.addWarn("notifications.application_created_title is empty; the built-in title will be used.")
	}

	return out, res
}
