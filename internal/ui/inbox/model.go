package inbox

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/neuralmail/internal/keys"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/theme"
)

// Loader is the read side of the mail store used by the list.
type Loader interface {
	All(ctx context.Context) ([]model.Message, error)
	Search(ctx context.Context, query string) ([]model.Message, error)
	ByCategory(ctx context.Context, label model.Category) ([]model.Message, error)
}

// MessagesLoadedMsg is sent when a load started by LoadMessages finishes.
type MessagesLoadedMsg struct {
	Messages []model.Message
	Err      error
}

// SelectedMsg is sent when the user opens a message.
type SelectedMsg struct {
	ID int64
}

// Filter is the active query and category restriction.
type Filter struct {
	Query    string
	Category model.Category
}

// Active reports whether any restriction is set.
func (f Filter) Active() bool {
	return f.Query != "" || f.Category != ""
}

// Model is the message list shown in the sidebar.
type Model struct {
	list        list.Model
	store       Loader
	keys        *keys.KeyMap
	filter      Filter
	searchMode  bool
	searchInput textinput.Model
	loaded      bool
	width       int
	height      int
}

// New creates a new message list model.
func New(s Loader, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search mail..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of messages.
func (m Model) Init() tea.Cmd {
	return m.LoadMessages()
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MessagesLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.loaded = true
		items := make([]list.Item, len(msg.Messages))
		for i, message := range msg.Messages {
			items[i] = MessageItem{Message: message}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		m.filter.Query = m.searchInput.Value()
		return m, m.LoadMessages()

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.filter.Query = ""
		return m, m.LoadMessages()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(MessageItem)
		if !ok {
			return m, nil
		}
		id := item.Message.ID
		return m, func() tea.Msg { return SelectedMsg{ID: id} }

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter.Query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterWork):
		return m, m.SetCategory(model.CategoryWork)
	case key.Matches(msg, m.keys.FilterFinance):
		return m, m.SetCategory(model.CategoryFinance)
	case key.Matches(msg, m.keys.FilterSocial):
		return m, m.SetCategory(model.CategorySocial)
	case key.Matches(msg, m.keys.FilterPromotions):
		return m, m.SetCategory(model.CategoryPromotions)
	case key.Matches(msg, m.keys.FilterInbox):
		return m, m.SetCategory(model.CategoryInbox)
	case key.Matches(msg, m.keys.ClearFilter):
		return m, m.ClearFilters()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetCategory restricts the list to c. Selecting the active category again
// clears the restriction.
func (m *Model) SetCategory(c model.Category) tea.Cmd {
	if m.filter.Category == c {
		m.filter.Category = ""
	} else {
		m.filter.Category = c
	}
	return m.LoadMessages()
}

// ClearFilters drops the query and category restriction.
func (m *Model) ClearFilters() tea.Cmd {
	m.filter = Filter{}
	m.searchInput.Reset()
	return m.LoadMessages()
}

// Filter returns the active restriction.
func (m Model) Filter() Filter { return m.filter }

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searchMode }

// FilterSummary describes the active restriction for the status bar.
func (m Model) FilterSummary() string {
	switch {
	case m.filter.Query != "" && m.filter.Category != "":
		return fmt.Sprintf("%q in %s", m.filter.Query, m.filter.Category)
	case m.filter.Query != "":
		return fmt.Sprintf("search: %q", m.filter.Query)
	case m.filter.Category != "":
		return "category: " + string(m.filter.Category)
	default:
		return ""
	}
}

// SelectedMessage returns the highlighted message, if any.
func (m Model) SelectedMessage() (model.Message, bool) {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return model.Message{}, false
	}
	return item.Message, true
}

// Len returns the number of listed messages.
func (m Model) Len() int { return len(m.list.Items()) }

// View renders the list.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no messages are listed.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case !m.loaded:
		return style.Render("Loading...")
	case m.filter.Active():
		return style.Render("No matching mail.\nPress 0 to clear filters.")
	default:
		return style.Render("No mail yet.\n\nPress r to fetch.")
	}
}

// LoadMessages returns a tea.Cmd that queries the store with the current
// filter. A query is matched by the store; the category restriction is
// then applied to the matches.
func (m Model) LoadMessages() tea.Cmd {
	filter := m.filter
	s := m.store
	return func() tea.Msg {
		msgs, err := load(context.Background(), s, filter)
		return MessagesLoadedMsg{Messages: msgs, Err: err}
	}
}

func load(ctx context.Context, s Loader, f Filter) ([]model.Message, error) {
	switch {
	case f.Query != "":
		msgs, err := s.Search(ctx, f.Query)
		if err != nil || f.Category == "" {
			return msgs, err
		}
		out := msgs[:0]
		for _, msg := range msgs {
			if msg.Category == f.Category {
				out = append(out, msg)
			}
		}
		return out, nil
	case f.Category != "":
		return s.ByCategory(ctx, f.Category)
	default:
		return s.All(ctx)
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
