package email

import (
	"context"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/source"
)

const defaultFetchLimit = 50

// Source fetches the account's INBOX over IMAP.
type Source struct {
	client  *IMAPClient
	account string
}

var _ source.Source = (*Source)(nil)

// NewSource builds an IMAP-backed source for acct. Port 993 implies
// implicit TLS; any other port negotiates STARTTLS.
func NewSource(acct model.Account, password string) *Source {
	port := acct.IMAPPort
	if port == 0 {
		port = 993
	}
	return &Source{
		client:  NewIMAPClient(acct.IMAPHost, port, acct.Email, password, port == 993),
		account: acct.Email,
	}
}

// Name identifies the source by account address.
func (s *Source) Name() string { return "imap:" + s.account }

// Fetch returns the newest messages in INBOX as stored-message values.
func (s *Source) Fetch(ctx context.Context, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	fetched, err := s.client.FetchRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]model.Message, 0, len(fetched))
	for _, m := range fetched {
		msgs = append(msgs, toMessage(m))
	}
	return source.AssignIDs(msgs), nil
}

func toMessage(m inboxMessage) model.Message {
	sender := m.FromAddr
	switch {
	case m.FromName != "" && m.FromAddr != "":
		sender = m.FromName + " <" + m.FromAddr + ">"
	case m.FromName != "":
		sender = m.FromName
	}

	date := ""
	if !m.Date.IsZero() {
		date = m.Date.Local().Format("Jan 2, 2006 15:04")
	}

	return model.Message{
		Subject:       m.Subject,
		Sender:        sender,
		DateLabel:     date,
		Body:          m.Body(),
		HasAttachment: len(m.Attachments) > 0,
		Category:      model.CategoryInbox,
	}
}
