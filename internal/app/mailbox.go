package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/outbox"
	"github.com/nhle/neuralmail/internal/source"
	"github.com/nhle/neuralmail/internal/source/email"
	"github.com/nhle/neuralmail/internal/source/mock"
)

// ErrNoAccount is returned when IMAP is requested but no account is stored.
var ErrNoAccount = errors.New("no mail account configured")

// demoAddress is the From address used when no real account exists.
const demoAddress = "demo@neuralmail.local"

// AccountStore is the slice of the mail store holding accounts.
type AccountStore interface {
	GetAccounts(ctx context.Context) ([]model.Account, error)
	UpsertAccount(ctx context.Context, acct model.Account) error
}

// Vault holds account passwords.
type Vault interface {
	GetPassword(account string) (string, error)
	SavePassword(account, password string) error
}

// Mailbox resolves the active account into a fetch source and a sender.
// Passwords are read from the vault on every call so an updated keyring
// entry is picked up without restarting.
type Mailbox struct {
	accounts AccountStore
	vault    Vault
	cfg      model.MailConfig
	devMode  bool
	logger   *zap.Logger
}

// NewMailbox creates a Mailbox. A nil logger disables logging.
func NewMailbox(accounts AccountStore, vault Vault, cfg *model.AppConfig, logger *zap.Logger) *Mailbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailbox{
		accounts: accounts,
		vault:    vault,
		cfg:      cfg.Mail,
		devMode:  cfg.DevMode,
		logger:   logger.Named("mailbox"),
	}
}

// Account returns the active account: the configured mail.account when it
// is stored, otherwise the first stored account. ok is false when none
// exists.
func (mb *Mailbox) Account(ctx context.Context) (acct model.Account, ok bool, err error) {
	accts, err := mb.accounts.GetAccounts(ctx)
	if err != nil {
		return model.Account{}, false, err
	}
	if len(accts) == 0 {
		return model.Account{}, false, nil
	}

	if want := strings.TrimSpace(mb.cfg.Account); want != "" {
		for _, a := range accts {
			if strings.EqualFold(a.Email, want) {
				return a, true, nil
			}
		}
		mb.logger.Warn("configured account not found, using first stored account",
			zap.String("account", want))
	}
	return accts[0], true, nil
}

// Source returns the fetch source for the active account.
func (mb *Mailbox) Source(ctx context.Context) (source.Source, error) {
	if mb.cfg.Source == model.MailSourceMock {
		return mock.New(), nil
	}

	acct, ok, err := mb.Account(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if mb.cfg.Source == model.MailSourceIMAP {
			return nil, ErrNoAccount
		}
		return mock.New(), nil
	}
	if acct.IsDemo {
		return mock.New(), nil
	}

	password, err := mb.vault.GetPassword(acct.Email)
	if err != nil {
		return nil, fmt.Errorf("loading password for %s: %w", acct.Email, err)
	}
	return email.NewSource(acct, password), nil
}

// Sender returns the outbound sender for the active account and the From
// address to use. Dev mode and demo accounts only log.
func (mb *Mailbox) Sender(ctx context.Context) (outbox.Sender, string, error) {
	acct, ok, err := mb.Account(ctx)
	if err != nil {
		return nil, "", err
	}

	from := demoAddress
	if ok {
		from = acct.Email
	}
	if mb.devMode || !ok || acct.IsDemo {
		return outbox.NewLogSender(mb.logger), from, nil
	}

	password, err := mb.vault.GetPassword(acct.Email)
	if err != nil {
		return nil, "", fmt.Errorf("loading password for %s: %w", acct.Email, err)
	}
	return outbox.NewSMTPSender(acct, password), from, nil
}

// SaveAccount stores acct and, when password is non-empty, its password.
// The password is written first so a stored account never lacks one.
func (mb *Mailbox) SaveAccount(ctx context.Context, acct model.Account, password string) error {
	if password != "" && !acct.IsDemo {
		if err := mb.vault.SavePassword(acct.Email, password); err != nil {
			return err
		}
	}
	return mb.accounts.UpsertAccount(ctx, acct)
}
