package email

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/neuralmail/internal/source"
)

// inboxMessage is one INBOX entry as read from the server.
type inboxMessage struct {
	Subject  string
	FromName string
	FromAddr string
	Date     time.Time
	content
}

// IMAPClient wraps go-imap v2 for connecting to and querying IMAP servers.
type IMAPClient struct {
	host     string
	port     int
	username string
	password string
	tls      bool
}

// NewIMAPClient creates a new IMAP client configuration. tls selects
// implicit TLS; otherwise STARTTLS is used.
func NewIMAPClient(
	host string, port int, username, password string, tls bool,
) *IMAPClient {
	return &IMAPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *IMAPClient) Connect(
	_ context.Context,
) (*imapclient.Client, error) {
	addr := c.host + ":" + strconv.Itoa(c.port)

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &source.AuthError{
			Account: c.username,
			Message: fmt.Sprintf("authentication failed: %v", err),
		}
	}

	return client, nil
}

// FetchRecent connects, selects INBOX and returns the newest limit
// messages with their bodies, newest first.
func (c *IMAPClient) FetchRecent(
	ctx context.Context, limit int,
) ([]inboxMessage, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	mbox, err := client.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}
	if mbox.NumMessages == 0 {
		return nil, nil
	}

	first := uint32(1)
	if limit > 0 && mbox.NumMessages > uint32(limit) {
		first = mbox.NumMessages - uint32(limit) + 1
	}
	var seqSet imap.SeqSet
	seqSet.AddRange(first, mbox.NumMessages)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(seqSet, fetchOpts)
	defer fetchCmd.Close()

	var messages []inboxMessage
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		m := fromEnvelope(buf.Envelope)
		if raw := buf.FindBodySection(bodySection); raw != nil {
			m.content = readContent(raw)
		}
		messages = append(messages, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	// Sequence numbers ascend with arrival; present newest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// fromEnvelope copies the header fields the inbox shows.
func fromEnvelope(env *imap.Envelope) inboxMessage {
	if env == nil {
		return inboxMessage{}
	}
	m := inboxMessage{Subject: env.Subject, Date: env.Date}
	if len(env.From) > 0 {
		m.FromName = env.From[0].Name
		m.FromAddr = env.From[0].Addr()
	}
	return m
}
