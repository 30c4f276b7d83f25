package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/neuralmail/internal/keys"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/theme"
)

// BackMsg signals the parent to return focus to the message list.
type BackMsg struct{}

// Section is one AI-produced block attached to the open message.
type Section struct {
	Text     string
	Degraded bool
	Loading  bool
	Err      string
}

func (s Section) empty() bool {
	return s.Text == "" && !s.Loading && s.Err == ""
}

// Model is the message detail view: headers, body, and the summary and
// reply draft produced for it.
type Model struct {
	message  *model.Message
	summary  Section
	draft    Section
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles scrolling through the viewport's own keys. Actions on
// the message are bound by the parent, which owns the request lifecycle.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// SetMessage shows msg and clears any summary or draft from the previous
// message.
func (m *Model) SetMessage(msg model.Message) {
	m.message = &msg
	m.summary = Section{}
	m.draft = Section{}
	m.loading = false
	m.refresh(true)
}

// Replace refreshes the open message's fields, e.g. after it was
// categorized, keeping the summary and draft. Other ids are ignored.
func (m *Model) Replace(msg model.Message) {
	if m.message == nil || m.message.ID != msg.ID {
		return
	}
	m.message = &msg
	m.refresh(false)
}

// Message returns the open message.
func (m Model) Message() (model.Message, bool) {
	if m.message == nil {
		return model.Message{}, false
	}
	return *m.message, true
}

// MessageID returns the open message's id, or 0 when none is open.
func (m Model) MessageID() int64 {
	if m.message == nil {
		return 0
	}
	return m.message.ID
}

// SetSummary replaces the summary block.
func (m *Model) SetSummary(s Section) {
	m.summary = s
	m.refresh(false)
}

// SetDraft replaces the reply draft block.
func (m *Model) SetDraft(s Section) {
	m.draft = s
	m.refresh(false)
}

// Summary returns the summary block.
func (m Model) Summary() Section { return m.summary }

// Draft returns the reply draft block.
func (m Model) Draft() Section { return m.draft }

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Clear closes the open message.
func (m *Model) Clear() {
	m.message = nil
	m.summary = Section{}
	m.draft = Section{}
	m.refresh(true)
}

func (m *Model) refresh(top bool) {
	m.viewport.SetContent(m.renderContent())
	if top {
		m.viewport.GotoTop()
	}
}

// View renders the detail view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return placeholder.Render("Loading message...")
	}
	if m.message == nil {
		return placeholder.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.message == nil {
		return ""
	}

	msg := m.message
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := msg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "(no subject)"
	}
	sections = append(sections, titleStyle.Render(subject))

	badge := theme.CategoryStyle(msg.Category).Render(string(msg.Category))
	if msg.HasAttachment {
		badge += "  " + theme.DimmedStyle.Render("has attachment")
	}
	sections = append(sections, badge, "")

	metaStyle := theme.DimmedStyle
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if msg.Sender != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("From:"),
			valStyle.Render(msg.Sender),
		))
	}
	if msg.DateLabel != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Date:"),
			valStyle.Render(msg.DateLabel),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))
	sections = append(sections, "", separator, "")

	body := msg.Body
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No content")
	}
	sections = append(sections, lipgloss.NewStyle().Width(max(10, m.width-2)).Render(body))

	if !m.summary.empty() {
		sections = append(sections, "", separator, "")
		sections = append(sections, renderSection("Summary", "Summarizing...", m.summary, m.width)...)
	}
	if !m.draft.empty() {
		sections = append(sections, "", separator, "")
		sections = append(sections, renderSection("Reply draft", "Drafting reply...", m.draft, m.width)...)
		if m.draft.Text != "" && !m.draft.Degraded && !m.draft.Loading {
			sections = append(sections, "", theme.HelpStyle.Render("Press S to send this reply."))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSection(title, pending string, s Section, width int) []string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(title)
	out := []string{header}

	switch {
	case s.Loading:
		out = append(out, theme.HelpStyle.Render(pending))
	case s.Err != "":
		out = append(out, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(s.Err))
	case s.Degraded:
		out = append(out, theme.HelpStyle.Render(s.Text+" (the AI service returned nothing usable)"))
	default:
		out = append(out, lipgloss.NewStyle().Width(max(10, width-2)).Render(s.Text))
	}
	return out
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh(false)
}
