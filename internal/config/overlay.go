package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// OverlayEnv applies HAVENJOB_* environment overrides on top of the file.
func OverlayEnv(cfg *Config) {
	if v := env("HAVENJOB_HOST"); v != "" {
		cfg.App.Host = v
	}
	if v := env("HAVENJOB_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("level=warn msg=\"ignoring HAVENJOB_PORT\" value=%q err=%q", v, err)
		} else {
			cfg.App.Port = p
		}
	}
	if v := env("HAVENJOB_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := env("HAVENJOB_FORWARDING_DOMAIN"); v != "" {
		cfg.App.ForwardingDomain = v
	}
	if v := env("HAVENJOB_IMAP_HOST"); v != "" {
		cfg.Email.IMAPHost = v
	}
	if v := env("HAVENJOB_IMAP_USER"); v != "" {
		cfg.Email.Username = v
	}
	if v := env("HAVENJOB_IMAP_PASSWORD"); v != "" {
		cfg.Email.AppPassword = v
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
