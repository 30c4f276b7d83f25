package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/neuralmail/internal/model"
)

// UpsertAccount inserts or updates an account row. The password is not
// stored here.
func (s *SQLiteStore) UpsertAccount(ctx context.Context, acct model.Account) error {
	if acct.Email == "" {
		return storageErr("upsert account", errors.New("email must not be empty"))
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (email, imap_host, imap_port, smtp_host, smtp_port, is_demo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			imap_host = excluded.imap_host,
			imap_port = excluded.imap_port,
			smtp_host = excluded.smtp_host,
			smtp_port = excluded.smtp_port,
			is_demo   = excluded.is_demo`,
		acct.Email, acct.IMAPHost, acct.IMAPPort, acct.SMTPHost, acct.SMTPPort,
		boolToInt(acct.IsDemo), acct.CreatedAt,
	)
	if err != nil {
		return storageErr("upsert account", fmt.Errorf("%s: %w", acct.Email, err))
	}
	return nil
}

type accountRow struct {
	Email     string    `db:"email"`
	IMAPHost  string    `db:"imap_host"`
	IMAPPort  int       `db:"imap_port"`
	SMTPHost  string    `db:"smtp_host"`
	SMTPPort  int       `db:"smtp_port"`
	IsDemo    int       `db:"is_demo"`
	CreatedAt time.Time `db:"created_at"`
}

// GetAccounts returns all configured accounts ordered by creation time.
func (s *SQLiteStore) GetAccounts(ctx context.Context) ([]model.Account, error) {
	var rows []accountRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT email, imap_host, imap_port, smtp_host, smtp_port, is_demo, created_at
		FROM accounts ORDER BY created_at, email`)
	if err != nil {
		return nil, storageErr("get accounts", err)
	}

	accts := make([]model.Account, 0, len(rows))
	for _, r := range rows {
		accts = append(accts, model.Account{
			Email:     r.Email,
			IMAPHost:  r.IMAPHost,
			IMAPPort:  r.IMAPPort,
			SMTPHost:  r.SMTPHost,
			SMTPPort:  r.SMTPPort,
			IsDemo:    r.IsDemo != 0,
			CreatedAt: r.CreatedAt,
		})
	}
	return accts, nil
}

// DeleteAccount removes an account row. Deleting a missing account is a no-op.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE email = ?", email); err != nil {
		return storageErr("delete account", fmt.Errorf("%s: %w", email, err))
	}
	return nil
}
