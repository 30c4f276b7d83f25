package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Fetch mail from the configured source
	Fetch key.Binding

	// Category filters; ClearFilter shows every category again.
	FilterWork       key.Binding
	FilterFinance    key.Binding
	FilterSocial     key.Binding
	FilterPromotions key.Binding
	FilterInbox      key.Binding
	ClearFilter      key.Binding

	// AI actions
	Summarize key.Binding
	Reply     key.Binding
	Send      key.Binding
	Chat      key.Binding

	// Settings
	Account     key.Binding
	ToggleTheme key.Binding
	Narrower    key.Binding
	Wider       key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open message"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Fetch: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "fetch mail"),
		),
		FilterWork: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "work"),
		),
		FilterFinance: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "finance"),
		),
		FilterSocial: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "social"),
		),
		FilterPromotions: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "promotions"),
		),
		FilterInbox: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "uncategorized"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "all categories"),
		),
		Summarize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "summarize"),
		),
		Reply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "draft reply"),
		),
		Send: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "send draft"),
		),
		Chat: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "ask your inbox"),
		),
		Account: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "account"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "cycle theme"),
		),
		Narrower: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "narrower list"),
		),
		Wider: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "wider list"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Help, k.Fetch, k.Account},
		{k.FilterWork, k.FilterFinance, k.FilterSocial, k.FilterPromotions, k.FilterInbox, k.ClearFilter},
		{k.Summarize, k.Reply, k.Send, k.Chat},
		{k.ToggleTheme, k.Narrower, k.Wider},
	}
}
