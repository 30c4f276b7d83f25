package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"github.com/nhle/neuralmail/internal/assistant"
	"github.com/nhle/neuralmail/internal/credential"
	"github.com/nhle/neuralmail/internal/inference"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/outbox"
	"github.com/nhle/neuralmail/internal/source"
	"github.com/nhle/neuralmail/internal/store"
	"github.com/nhle/neuralmail/tests/testutil"
)

func newMailbox(t *testing.T, cfg *model.AppConfig, accts ...model.Account) (*Mailbox, *credential.Vault) {
	t.Helper()
	s := testutil.NewTestStore(t)
	for _, a := range accts {
		if err := s.UpsertAccount(context.Background(), a); err != nil {
			t.Fatalf("UpsertAccount: %v", err)
		}
	}
	vault := credential.NewVaultWithKeyring(keyring.NewArrayKeyring(nil))
	return NewMailbox(s, vault, cfg, nil), vault
}

func imapAccount(email string, created time.Time) model.Account {
	return model.Account{
		Email:     email,
		IMAPHost:  "imap.example.com",
		IMAPPort:  993,
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		CreatedAt: created,
	}
}

func TestMailboxSourceSelection(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	acct := imapAccount("me@example.com", base)
	demo := model.Account{Email: "demo@example.com", IsDemo: true, CreatedAt: base}

	tests := []struct {
		name     string
		mode     string
		accounts []model.Account
		password string
		want     string
		wantErr  error
	}{
		{name: "mock mode ignores accounts", mode: model.MailSourceMock, accounts: []model.Account{acct}, want: "mock"},
		{name: "auto without account", mode: model.MailSourceAuto, want: "mock"},
		{name: "imap without account", mode: model.MailSourceIMAP, wantErr: ErrNoAccount},
		{name: "demo account", mode: model.MailSourceAuto, accounts: []model.Account{demo}, want: "mock"},
		{name: "real account", mode: model.MailSourceAuto, accounts: []model.Account{acct}, password: "pw", want: "imap:me@example.com"},
		{name: "real account without password", mode: model.MailSourceIMAP, accounts: []model.Account{acct}, wantErr: credential.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &model.AppConfig{Mail: model.MailConfig{Source: tt.mode}}
			mb, vault := newMailbox(t, cfg, tt.accounts...)
			if tt.password != "" {
				if err := vault.SavePassword(tt.accounts[0].Email, tt.password); err != nil {
					t.Fatalf("SavePassword: %v", err)
				}
			}

			src, err := mb.Source(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Source: %v", err)
			}
			if src.Name() != tt.want {
				t.Errorf("source = %q, want %q", src.Name(), tt.want)
			}
		})
	}
}

func TestMailboxAccountPrefersConfigured(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	first := imapAccount("first@example.com", base)
	second := imapAccount("second@example.com", base.Add(time.Hour))

	tests := []struct {
		name       string
		configured string
		want       string
	}{
		{name: "unset", want: "first@example.com"},
		{name: "configured", configured: "Second@Example.com", want: "second@example.com"},
		{name: "configured but missing", configured: "gone@example.com", want: "first@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &model.AppConfig{Mail: model.MailConfig{Account: tt.configured}}
			mb, _ := newMailbox(t, cfg, first, second)

			acct, ok, err := mb.Account(context.Background())
			if err != nil || !ok {
				t.Fatalf("Account: ok=%v err=%v", ok, err)
			}
			if acct.Email != tt.want {
				t.Errorf("account = %q, want %q", acct.Email, tt.want)
			}
		})
	}
}

func TestMailboxSenderSelection(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	acct := imapAccount("me@example.com", base)

	t.Run("no account logs from demo address", func(t *testing.T) {
		mb, _ := newMailbox(t, &model.AppConfig{})
		sender, from, err := mb.Sender(context.Background())
		if err != nil {
			t.Fatalf("Sender: %v", err)
		}
		if _, ok := sender.(*outbox.LogSender); !ok {
			t.Errorf("sender = %T, want *outbox.LogSender", sender)
		}
		if from != demoAddress {
			t.Errorf("from = %q, want %q", from, demoAddress)
		}
	})

	t.Run("dev mode never delivers", func(t *testing.T) {
		mb, vault := newMailbox(t, &model.AppConfig{DevMode: true}, acct)
		if err := vault.SavePassword(acct.Email, "pw"); err != nil {
			t.Fatalf("SavePassword: %v", err)
		}
		sender, from, err := mb.Sender(context.Background())
		if err != nil {
			t.Fatalf("Sender: %v", err)
		}
		if _, ok := sender.(*outbox.LogSender); !ok {
			t.Errorf("sender = %T, want *outbox.LogSender", sender)
		}
		if from != acct.Email {
			t.Errorf("from = %q, want %q", from, acct.Email)
		}
	})

	t.Run("real account uses smtp", func(t *testing.T) {
		mb, vault := newMailbox(t, &model.AppConfig{}, acct)
		if err := vault.SavePassword(acct.Email, "pw"); err != nil {
			t.Fatalf("SavePassword: %v", err)
		}
		sender, _, err := mb.Sender(context.Background())
		if err != nil {
			t.Fatalf("Sender: %v", err)
		}
		if _, ok := sender.(*outbox.SMTPSender); !ok {
			t.Errorf("sender = %T, want *outbox.SMTPSender", sender)
		}
	})
}

func TestMailboxSaveAccount(t *testing.T) {
	mb, vault := newMailbox(t, &model.AppConfig{})
	acct := imapAccount("new@example.com", time.Time{})

	if err := mb.SaveAccount(context.Background(), acct, "secret"); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}

	pw, err := vault.GetPassword("new@example.com")
	if err != nil || pw != "secret" {
		t.Errorf("password = %q, %v", pw, err)
	}
	got, ok, err := mb.Account(context.Background())
	if err != nil || !ok || got.Email != "new@example.com" {
		t.Errorf("Account = %+v ok=%v err=%v", got, ok, err)
	}
}

func TestMailboxSaveDemoSkipsVault(t *testing.T) {
	mb, vault := newMailbox(t, &model.AppConfig{})
	demo := model.Account{Email: "demo@example.com", IsDemo: true}

	if err := mb.SaveAccount(context.Background(), demo, "ignored"); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	if _, err := vault.GetPassword("demo@example.com"); !errors.Is(err, credential.ErrNotFound) {
		t.Errorf("demo password stored: err = %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{
			name: "breaker open",
			err:  &inference.UnavailableError{Attempts: 0, Err: errors.New("open")},
			want: "AI service is paused after repeated failures. Try again shortly.",
		},
		{
			name: "service down",
			err:  fmt.Errorf("summarize: %w", &inference.UnavailableError{Attempts: 3, Err: errors.New("refused")}),
			want: "AI service unavailable. Is the local model server running?",
		},
		{
			name: "validation",
			err:  &assistant.ValidationError{Field: "question", Reason: "must not be empty"},
			want: "Can't do that: must not be empty",
		},
		{
			name: "auth",
			err:  &source.AuthError{Account: "me@example.com", Message: "bad password"},
			want: "Login failed for me@example.com: bad password",
		},
		{
			name: "missing password",
			err:  fmt.Errorf("loading password: %w", credential.ErrNotFound),
			want: "No saved password for this account. Press A to enter it.",
		},
		{name: "no account", err: ErrNoAccount, want: "No mail account configured. Press A to add one."},
		{
			name: "storage",
			err:  &store.StorageError{Op: "replace messages", Err: errors.New("disk full")},
			want: "Storage error while trying to replace messages.",
		},
		{name: "cancelled", err: context.Canceled, want: "Cancelled."},
		{name: "other", err: errors.New("boom"), want: "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := userMessage(tt.err); got != tt.want {
				t.Errorf("userMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
