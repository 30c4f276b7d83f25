package inbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/theme"
)

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.Message
}

// FilterValue returns the string used for list filtering.
func (i MessageItem) FilterValue() string { return i.Message.Subject }

// Title returns the subject, or a placeholder when it is blank.
func (i MessageItem) Title() string {
	if strings.TrimSpace(i.Message.Subject) == "" {
		return "(no subject)"
	}
	return i.Message.Subject
}

// Description returns the sender and date line.
func (i MessageItem) Description() string {
	parts := []string{senderName(i.Message.Sender)}
	if i.Message.DateLabel != "" {
		parts = append(parts, i.Message.DateLabel)
	}
	return strings.Join(parts, " · ")
}

// senderName drops the address part of "Name <addr>".
func senderName(s string) string {
	if i := strings.Index(s, " <"); i > 0 {
		return s[:i]
	}
	return s
}

// ItemDelegate draws each message on two lines: a subject line with the
// category badge, then sender and date.
type ItemDelegate struct{}

func (d ItemDelegate) Height() int  { return 2 }
func (d ItemDelegate) Spacing() int { return 0 }

func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message entry.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	width := m.Width() - 3
	if width < 10 {
		width = 10
	}
	clip := lipgloss.NewStyle().MaxWidth(width)

	badge := theme.CategoryStyle(mi.Message.Category).Render(categoryBadge(mi.Message.Category))
	attach := ""
	if mi.Message.HasAttachment {
		attach = " +"
	}

	top := clip.Render(fmt.Sprintf("%s %s%s", badge, mi.Title(), attach))
	bottom := clip.Render(theme.DimmedStyle.Render(mi.Description()))

	style := theme.ListItemStyle
	if index == m.Index() {
		style = theme.SelectedItemStyle
	}

	fmt.Fprint(w, style.Render(top+"\n"+bottom))
}

// categoryBadge is the fixed-width label shown in the list.
func categoryBadge(c model.Category) string {
	switch c {
	case model.CategoryWork:
		return "WRK"
	case model.CategoryFinance:
		return "FIN"
	case model.CategorySocial:
		return "SOC"
	case model.CategoryPromotions:
		return "PRM"
	default:
		return "INB"
	}
}
