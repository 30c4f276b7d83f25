package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/ui"
)

// startupMsg kicks off the first fetch or categorization pass once the
// program is running.
type startupMsg struct{}

// messageCountMsg carries the number of stored messages at startup.
type messageCountMsg struct {
	count int
	err   error
}

// messageLoadedMsg carries a message opened from the list.
type messageLoadedMsg struct {
	message model.Message
	err     error
}

// settingsLoadedMsg carries the persisted presentation settings.
type settingsLoadedMsg struct {
	themeMode    string
	sidebarWidth int
	err          error
}

// settingSavedMsg reports the outcome of a settings write.
type settingSavedMsg struct {
	key string
	err error
}

// accountLoadedMsg carries the active account; ok is false when none is
// stored.
type accountLoadedMsg struct {
	account model.Account
	ok      bool
	err     error
}

// accountSavedMsg reports the outcome of the account form.
type accountSavedMsg struct {
	account model.Account
	err     error
}

// loadMessage returns a command that loads a message by ID from the store.
func (m Model) loadMessage(id int64) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		msg, err := s.Get(context.Background(), id)
		return messageLoadedMsg{message: msg, err: err}
	}
}

// countMessages returns a command that counts stored messages.
func (m Model) countMessages() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		n, err := s.Count(context.Background())
		return messageCountMsg{count: n, err: err}
	}
}

// loadSettings returns a command that reads theme and sidebar settings.
func (m Model) loadSettings() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		mode, err := s.GetSetting(ctx, model.SettingThemeMode, model.DefaultThemeMode)
		if err != nil {
			return settingsLoadedMsg{err: err}
		}
		width, err := s.GetSetting(ctx, model.SettingSidebarWidth, model.DefaultSidebarWidth)
		if err != nil {
			return settingsLoadedMsg{err: err}
		}
		def := ui.ParseSidebarWidth(model.DefaultSidebarWidth, 42)
		return settingsLoadedMsg{
			themeMode:    mode,
			sidebarWidth: ui.ParseSidebarWidth(width, def),
		}
	}
}

// saveSetting returns a command that persists one setting.
func (m Model) saveSetting(key, value string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.SetSetting(context.Background(), key, value)
		return settingSavedMsg{key: key, err: err}
	}
}

// loadAccount returns a command that resolves the active account.
func (m Model) loadAccount() tea.Cmd {
	mb := m.mailbox
	return func() tea.Msg {
		acct, ok, err := mb.Account(context.Background())
		return accountLoadedMsg{account: acct, ok: ok, err: err}
	}
}

// saveAccount returns a command that stores the account and its password.
func (m Model) saveAccount(acct model.Account, password string) tea.Cmd {
	mb := m.mailbox
	return func() tea.Msg {
		err := mb.SaveAccount(context.Background(), acct, password)
		return accountSavedMsg{account: acct, err: err}
	}
}
