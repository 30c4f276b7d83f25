package email

import (
	"bytes"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// content is the readable part of a message body.
type content struct {
	Text        string
	HTML        string
	Attachments []string // filenames, "" when unnamed
}

// readContent splits a raw RFC 5322 message into its first text/plain
// part, first text/html part and attachment names. Bodies are decoded
// from their transfer encoding and charset. Input that is not MIME is
// returned whole as text.
func readContent(raw []byte) content {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return content{Text: string(raw)}
	}
	defer mr.Close()

	var c content
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			mediaType, _, _ := h.ContentType()
			if mediaType != "text/plain" && mediaType != "text/html" {
				continue
			}
			b, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			if mediaType == "text/plain" && c.Text == "" {
				c.Text = string(b)
			} else if mediaType == "text/html" && c.HTML == "" {
				c.HTML = string(b)
			}

		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			c.Attachments = append(c.Attachments, name)
		}
	}
	return c
}

// Body returns the plain text, falling back to a text rendering of the
// HTML part.
func (c content) Body() string {
	if strings.TrimSpace(c.Text) != "" {
		return strings.TrimSpace(c.Text)
	}
	return htmlToText(c.HTML)
}

// htmlToText renders markup as plain text: block elements become line
// breaks, entities are decoded and script or style contents are dropped.
func htmlToText(markup string) string {
	if markup == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseBlankLines(b.String())

		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			case atom.Br:
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Li, atom.Tr, atom.H1, atom.H2, atom.H3:
				b.WriteByte('\n')
			}
		}
	}
}

func collapseBlankLines(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := 0
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
