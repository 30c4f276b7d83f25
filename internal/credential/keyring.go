package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "neuralmail"

// ErrNotFound is returned when no password is stored for an account.
var ErrNotFound = errors.New("credential not found")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/neuralmail/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("neuralmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Vault stores account passwords in the OS keyring, keyed by account
// address. Passwords never touch the mail database.
type Vault struct {
	open func() (keyring.Keyring, error)
}

// NewVault returns a vault backed by the system keyring. The keyring is
// opened on each call so a locked or unavailable backend surfaces as an
// error at use time rather than at startup.
func NewVault() *Vault {
	return &Vault{open: openKeyring}
}

// NewVaultWithKeyring returns a vault over an already-open keyring.
func NewVaultWithKeyring(ring keyring.Keyring) *Vault {
	return &Vault{open: func() (keyring.Keyring, error) { return ring, nil }}
}

func passwordKey(account string) string {
	return "password:" + strings.ToLower(strings.TrimSpace(account))
}

// SavePassword stores password for account, replacing any previous value.
func (v *Vault) SavePassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("saving credential: account must not be empty")
	}

	ring, err := v.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         passwordKey(account),
		Data:        []byte(password),
		Label:       "neuralmail: " + account,
		Description: "mail account password",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", account, err)
	}

	return nil
}

// GetPassword returns the stored password for account, or ErrNotFound.
func (v *Vault) GetPassword(account string) (string, error) {
	ring, err := v.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(passwordKey(account))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", account, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", account, err)
	}

	return string(item.Data), nil
}

// DeletePassword removes the stored password. Deleting a missing password
// is not an error.
func (v *Vault) DeletePassword(account string) error {
	ring, err := v.open()
	if err != nil {
		return err
	}

	err = ring.Remove(passwordKey(account))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", account, err)
	}

	return nil
}
