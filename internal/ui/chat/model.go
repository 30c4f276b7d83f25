package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/neuralmail/internal/assistant"
	"github.com/nhle/neuralmail/internal/theme"
)

// Rows taken by the panel border, title, separator and input line.
const chromeRows = 7

// CloseMsg signals the parent to close the chat panel.
type CloseMsg struct{}

// SubmitMsg carries a question the user entered. The parent decides
// whether it is answered locally or sent to the assistant.
type SubmitMsg struct {
	Text string
}

// Model is the chat panel: a scrolling transcript over a one-line prompt.
type Model struct {
	history    *assistant.Conversation
	prompt     textinput.Model
	transcript viewport.Model
	thinking   bool
	width      int
	height     int
}

// New creates a chat panel rendering history.
func New(history *assistant.Conversation, width, height int) Model {
	p := textinput.New()
	p.Placeholder = "Ask about your inbox..."
	p.Prompt = "> "
	p.CharLimit = 2000
	p.Focus()

	m := Model{
		history:    history,
		prompt:     p,
		transcript: viewport.New(0, 0),
	}
	m.SetSize(width, height)
	return m
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the chat panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}

	switch k.Type {
	case tea.KeyEsc:
		return m, func() tea.Msg { return CloseMsg{} }

	case tea.KeyEnter:
		return m.submit()

	case tea.KeyCtrlL:
		m.Reset()
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// submit records the typed question and hands it to the parent. Nothing
// is sent while an answer is pending.
func (m Model) submit() (Model, tea.Cmd) {
	question := strings.TrimSpace(m.prompt.Value())
	if m.thinking || question == "" {
		return m, nil
	}

	m.prompt.SetValue("")
	m.history.Append(assistant.Turn{Role: assistant.RoleUser, Content: question})
	m.sync()
	return m, func() tea.Msg { return SubmitMsg{Text: question} }
}

// AddReply appends an assistant turn and clears the thinking state.
func (m *Model) AddReply(text string, failed bool) {
	m.history.Append(assistant.Turn{Role: assistant.RoleAssistant, Content: text, Failed: failed})
	m.thinking = false
	m.sync()
}

// SetThinking toggles the pending-answer indicator.
func (m *Model) SetThinking(v bool) {
	m.thinking = v
	m.sync()
}

// Thinking reports whether an answer is pending.
func (m Model) Thinking() bool { return m.thinking }

// sync redraws the transcript and keeps the newest turn in view.
func (m *Model) sync() {
	m.transcript.SetContent(m.renderTranscript())
	m.transcript.GotoBottom()
}

func (m Model) renderTranscript() string {
	turns := m.history.Turns()
	if len(turns) == 0 && !m.thinking {
		return theme.DimmedStyle.Italic(true).Render(
			"Ask me about your mail. I can find messages, " +
				"summarize threads and answer questions about your inbox.")
	}

	wrap := lipgloss.NewStyle().Width(max(10, m.width-6))
	you := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("You")
	bot := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("NeuralMail")

	var b strings.Builder
	for _, t := range turns {
		label, body := bot, wrap.Foreground(theme.ColorWhite)
		if t.Role == assistant.RoleUser {
			label = you
		} else if t.Failed {
			body = wrap.Foreground(theme.ColorRed)
		}
		b.WriteString(label + "\n" + body.Render(t.Content) + "\n\n")
	}
	if m.thinking {
		b.WriteString(theme.HelpStyle.Render("thinking..."))
	}
	return strings.TrimRight(b.String(), "\n")
}

// View renders the chat panel.
func (m Model) View() string {
	rule := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(0, min(m.width-6, 80))))

	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Ask your inbox"),
		"",
		m.transcript.View(),
		rule,
		m.prompt.View(),
	)
	return theme.DetailPanelStyle.Width(max(0, m.width-4)).Render(body)
}

// SetSize fits the transcript and prompt inside width x height.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.prompt.Width = max(10, width-8)
	m.transcript.Width = max(10, width-6)
	m.transcript.Height = max(4, height-chromeRows)
	m.sync()
}

// Focus gives keyboard focus to the prompt.
func (m *Model) Focus() tea.Cmd {
	return m.prompt.Focus()
}

// Reset clears the conversation and the prompt.
func (m *Model) Reset() {
	m.history.Reset()
	m.thinking = false
	m.prompt.SetValue("")
	m.sync()
}
