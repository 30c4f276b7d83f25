package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/neuralmail/internal/keys"
	"github.com/nhle/neuralmail/internal/theme"
)

// Info is the runtime state listed under the shortcuts.
type Info struct {
	Account  string
	Endpoint string
	Model    string
	Theme    string
	DevMode  bool
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	info   Info
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetInfo replaces the runtime state section.
func (m *Model) SetInfo(info Info) {
	m.info = info
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText, "", m.renderInfo())

	return theme.DetailPanelStyle.
		Width(max(0, m.width-4)).
		Height(max(0, m.height-4)).
		Render(content)
}

func (m Model) renderInfo() string {
	account := m.info.Account
	if account == "" {
		account = "none (press A to add one)"
	}
	rows := [][2]string{
		{"Account", account},
		{"AI endpoint", m.info.Endpoint},
		{"Model", m.info.Model},
		{"Theme", m.info.Theme},
	}
	if m.info.DevMode {
		rows = append(rows, [2]string{"Sending", "dev mode, mail is logged not sent"})
	}

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s %s\n", theme.DimmedStyle.Render(fmt.Sprintf("%-12s", r[0]+":")), r[1])
	}
	return strings.TrimRight(b.String(), "\n")
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
