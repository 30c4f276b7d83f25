// Package outbox delivers composed mail. Drafts produced by the reply
// orchestrator are only sent after the user confirms them.
package outbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/model"
)

// ErrNoRecipient is returned when an outgoing message has no usable To
// address.
var ErrNoRecipient = errors.New("outbox: no recipient")

// Outgoing is a composed plain-text message.
type Outgoing struct {
	From      string
	To        string
	Subject   string
	Body      string
	InReplyTo string
}

// Reply composes a response to m from the given account. The recipient is
// taken from m's sender and the subject gains a single "Re: " prefix.
func Reply(from string, m model.Message, body string) (Outgoing, error) {
	addr, err := mail.ParseAddress(m.Sender)
	if err != nil {
		return Outgoing{}, fmt.Errorf("%w: %q: %v", ErrNoRecipient, m.Sender, err)
	}

	subject := strings.TrimSpace(m.Subject)
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	return Outgoing{
		From:    from,
		To:      addr.Address,
		Subject: subject,
		Body:    body,
	}, nil
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, out Outgoing) error
}

// LogSender records messages instead of delivering them. Used for demo
// accounts and dev mode.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a sender that only logs.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, out Outgoing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if out.To == "" {
		return ErrNoRecipient
	}
	s.logger.Info("outgoing message (not delivered)",
		zap.String("from", out.From),
		zap.String("to", out.To),
		zap.String("subject", out.Subject),
		zap.Int("body_len", len(out.Body)),
	)
	return nil
}

// SMTPSender submits mail to the account's outgoing server with PLAIN auth.
type SMTPSender struct {
	addr     string
	host     string
	username string
	password string
	implicit bool
	now      func() time.Time
}

// NewSMTPSender builds a sender for acct. Port 465 uses implicit TLS.
// Other ports require STARTTLS, except on a loopback relay, which is
// spoken to in plaintext.
func NewSMTPSender(acct model.Account, password string) *SMTPSender {
	port := acct.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		addr:     net.JoinHostPort(acct.SMTPHost, strconv.Itoa(port)),
		host:     acct.SMTPHost,
		username: acct.Email,
		password: password,
		implicit: port == 465,
		now:      time.Now,
	}
}

// Send delivers out. Cancelling ctx closes the connection and aborts the
// exchange; once the server has accepted the message Send reports success
// even if ctx is cancelled afterwards.
func (s *SMTPSender) Send(ctx context.Context, out Outgoing) error {
	if out.To == "" {
		return ErrNoRecipient
	}
	if out.From == "" {
		out.From = s.username
	}

	raw, err := buildMessage(out, s.now())
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("connecting to %s: %w", s.addr, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err = s.deliver(conn, out, raw)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("sending via %s: %w", s.addr, err)
	}
	return nil
}

func (s *SMTPSender) deliver(conn net.Conn, out Outgoing, raw []byte) error {
	tlsConfig := &tls.Config{ServerName: s.host}

	var c *smtp.Client
	switch {
	case s.implicit:
		c = smtp.NewClient(tls.Client(conn, tlsConfig))
	case isLoopback(s.host):
		c = smtp.NewClient(conn)
	default:
		var err error
		if c, err = smtp.NewClientStartTLS(conn, tlsConfig); err != nil {
			return err
		}
	}
	defer c.Close()

	if ok, _ := c.Extension("AUTH"); !ok {
		return errors.New("server does not offer AUTH")
	}
	if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
		return err
	}
	if err := c.SendMail(out.From, []string{out.To}, bytes.NewReader(raw)); err != nil {
		return err
	}
	return c.Quit()
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// buildMessage renders out as an RFC 5322 message with a single
// text/plain part.
func buildMessage(out Outgoing, date time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(out.From)
	if err != nil {
		return nil, fmt.Errorf("parsing from address: %w", err)
	}
	to, err := mail.ParseAddress(out.To)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRecipient, err)
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(out.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if out.InReplyTo != "" {
		h.Set("In-Reply-To", out.InReplyTo)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(out.Body)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
