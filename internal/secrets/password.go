package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"havenjob-engine/internal/config"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "havenjob"
)

var ErrNoPassword = errors.New("IMAP password not found (set it in keychain or via HAVENJOB_IMAP_PASSWORD)")

// IMAPPassword resolves the mailbox password: an explicit config or env value
// wins, then the keyring entry for the configured account.
func IMAPPassword(cfg config.Config) (string, error) {
	if pw := strings.TrimSpace(cfg.Email.AppPassword); pw != "" {
		return pw, nil
	}
	return GetIMAPPassword(IMAPKeyringAccount(cfg))
}

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", ErrNoPassword
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, keyringAccount)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func IMAPKeyringAccount(cfg config.Config) string {
	if cfg.Email.Username == "" || cfg.Email.IMAPHost == "" {
		return ""
	}
	return fmt.Sprintf("havenjob:imap:%s@%s", cfg.Email.Username, cfg.Email.IMAPHost)
}
