package app

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/assistant"
	"github.com/nhle/neuralmail/internal/bridge"
	"github.com/nhle/neuralmail/internal/categorize"
	"github.com/nhle/neuralmail/internal/keys"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/store"
	"github.com/nhle/neuralmail/internal/theme"
	"github.com/nhle/neuralmail/internal/ui"
	accountview "github.com/nhle/neuralmail/internal/ui/account"
	chatview "github.com/nhle/neuralmail/internal/ui/chat"
	"github.com/nhle/neuralmail/internal/ui/detail"
	helpview "github.com/nhle/neuralmail/internal/ui/help"
	"github.com/nhle/neuralmail/internal/ui/inbox"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewChat
	ViewAccount
	ViewHelp
)

// Deps are the collaborators the root model drives.
type Deps struct {
	Store     store.Store
	Assistant *assistant.Assistant
	Worker    *categorize.Worker
	Bridge    *bridge.Bridge
	Session   *bridge.Session
	Mailbox   *Mailbox
	History   *assistant.Conversation
	Config    *model.AppConfig
	Logger    *zap.Logger
}

// Model is the root Bubble Tea model. All presentation state (message
// list, chat history, settings, loading flags) is mutated only here, on
// the program's goroutine; slow work goes through the bridge and comes
// back as bridge.ResultMsg.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	store     store.Store
	assistant *assistant.Assistant
	worker    *categorize.Worker
	bridge    *bridge.Bridge
	session   *bridge.Session
	mailbox   *Mailbox
	cfg       *model.AppConfig
	logger    *zap.Logger

	inbox       inbox.Model
	detail      detail.Model
	chat        chatview.Model
	accountForm accountview.Model
	helpView    helpview.Model

	// pending maps bridge request ids to what they were for.
	pending map[string]request

	fetchLimit   int
	sidebarWidth int
	themeMode    string
	account      string
	status       string
	statusErr    bool
	ready        bool
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	history := d.History
	if history == nil {
		history = assistant.NewConversation(0)
	}
	cfg := d.Config
	if cfg == nil {
		cfg = &model.AppConfig{}
	}
	sidebar := ui.ParseSidebarWidth(model.DefaultSidebarWidth, 42)

	return Model{
		currentView:  ViewInbox,
		layout:       ui.NewLayout(80, 24, sidebar),
		keys:         k,
		store:        d.Store,
		assistant:    d.Assistant,
		worker:       d.Worker,
		bridge:       d.Bridge,
		session:      d.Session,
		mailbox:      d.Mailbox,
		cfg:          cfg,
		logger:       logger.Named("app"),
		inbox:        inbox.New(d.Store, k, sidebar, 22),
		detail:       detail.New(k, 80-sidebar, 22),
		chat:         chatview.New(history, 80-sidebar, 22),
		accountForm:  accountview.New(80-sidebar, 22),
		helpView:     helpview.New(k, 80-sidebar, 22),
		pending:      make(map[string]request),
		fetchLimit:   cfg.Mail.FetchLimit,
		sidebarWidth: sidebar,
		themeMode:    model.DefaultThemeMode,
	}
}

// Init loads settings, the active account and the message list, then
// starts the first background pass.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSettings(),
		m.loadAccount(),
		m.inbox.Init(),
		func() tea.Msg { return startupMsg{} },
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height, m.sidebarWidth)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case bridge.ResultMsg:
		return m.handleResult(msg)

	case startupMsg:
		return m, m.countMessages()

	case messageCountMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if msg.count == 0 {
			m.startFetch()
			return m, nil
		}
		m.startCategorize()
		return m, nil

	case settingsLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.themeMode = msg.themeMode
		theme.Apply(m.themeMode)
		m.sidebarWidth = msg.sidebarWidth
		m.layout = ui.NewLayout(m.layout.Width, m.layout.Height, m.sidebarWidth)
		m.resize()
		return m, nil

	case settingSavedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case accountLoadedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.account = ""
		if msg.ok {
			m.account = msg.account.Email
		}
		return m, nil

	case accountSavedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.account = msg.account.Email
		m.setStatus("Account saved: " + msg.account.Email)
		m.startFetch()
		return m, m.loadAccount()

	case inbox.MessagesLoadedMsg:
		if msg.Err != nil {
			m.setError(msg.Err)
			return m, nil
		}
		for _, message := range msg.Messages {
			if message.ID == m.detail.MessageID() {
				m.detail.Replace(message)
				break
			}
		}
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		return m, cmd

	case inbox.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadMessage(msg.ID)

	case messageLoadedMsg:
		m.detail.SetLoading(false)
		if msg.err != nil {
			m.setError(msg.err)
			m.currentView = ViewInbox
			return m, nil
		}
		m.detail.SetMessage(msg.message)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, nil

	case chatview.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case chatview.SubmitMsg:
		if reply, ok := m.assistant.Greet(msg.Text); ok {
			m.chat.AddReply(reply, false)
			return m, nil
		}
		m.startChat(msg.Text)
		m.chat.SetThinking(true)
		return m, nil

	case accountview.SubmittedMsg:
		m.currentView = ViewInbox
		return m, m.saveAccount(msg.Account, msg.Password)

	case accountview.CancelMsg:
		m.currentView = ViewInbox
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.capturesText() {
			break
		}
		m.clearStatus()
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturesText reports whether the active view is reading free text, in
// which case single-letter shortcuts must not fire.
func (m Model) capturesText() bool {
	switch m.currentView {
	case ViewChat, ViewAccount:
		return true
	case ViewInbox:
		return m.inbox.Searching()
	default:
		return false
	}
}

// handleGlobalKey runs the shortcuts available from the inbox, detail and
// help views.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit) && m.currentView == ViewInbox:
		next, cmd := m.quit()
		return next.(Model), cmd, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		m.helpView.SetInfo(m.helpInfo())
		return m, nil, true

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.currentView = m.previousView
		return m, nil, true

	case key.Matches(msg, m.keys.Fetch):
		m.startFetch()
		return m, nil, true

	case key.Matches(msg, m.keys.Chat):
		m.previousView = m.currentView
		m.currentView = ViewChat
		return m, m.chat.Focus(), true

	case key.Matches(msg, m.keys.Account):
		m.previousView = m.currentView
		m.currentView = ViewAccount
		return m, m.startAccountForm(), true

	case key.Matches(msg, m.keys.ToggleTheme):
		m.themeMode = model.NextThemeMode(m.themeMode)
		theme.Apply(m.themeMode)
		m.setStatus("Theme: " + m.themeMode)
		return m, m.saveSetting(model.SettingThemeMode, m.themeMode), true

	case key.Matches(msg, m.keys.Narrower):
		return m.resizeSidebar(-ui.SidebarWidthStep)

	case key.Matches(msg, m.keys.Wider):
		return m.resizeSidebar(ui.SidebarWidthStep)

	case key.Matches(msg, m.keys.Summarize):
		return m.summarize()

	case key.Matches(msg, m.keys.Reply):
		return m.draftReply()

	case key.Matches(msg, m.keys.Send):
		return m.sendDraft()
	}

	return m, nil, false
}

// target returns the message AI actions apply to: the open message in
// the detail view, otherwise the highlighted list entry, which is opened.
func (m *Model) target() (model.Message, bool) {
	if m.currentView == ViewDetail {
		if msg, ok := m.detail.Message(); ok {
			return msg, true
		}
	}
	msg, ok := m.inbox.SelectedMessage()
	if !ok {
		return model.Message{}, false
	}
	if m.detail.MessageID() != msg.ID {
		m.detail.SetMessage(msg)
	}
	m.currentView = ViewDetail
	return msg, true
}

func (m Model) summarize() (Model, tea.Cmd, bool) {
	msg, ok := m.target()
	if !ok {
		m.setError(&assistant.ValidationError{Field: "message", Reason: "no message selected"})
		return m, nil, true
	}
	if m.detail.Summary().Loading {
		return m, nil, true
	}
	m.startSummarize(msg)
	m.detail.SetSummary(detail.Section{Loading: true})
	return m, nil, true
}

func (m Model) draftReply() (Model, tea.Cmd, bool) {
	msg, ok := m.target()
	if !ok {
		m.setError(&assistant.ValidationError{Field: "message", Reason: "no message selected"})
		return m, nil, true
	}
	if m.detail.Draft().Loading {
		return m, nil, true
	}
	m.startReply(msg)
	m.detail.SetDraft(detail.Section{Loading: true})
	return m, nil, true
}

func (m Model) sendDraft() (Model, tea.Cmd, bool) {
	msg, ok := m.detail.Message()
	draft := m.detail.Draft()
	if !ok || draft.Text == "" || draft.Loading || draft.Degraded {
		m.setError(&assistant.ValidationError{Field: "reply", Reason: "no reply draft to send, press R first"})
		return m, nil, true
	}
	if m.inFlight(bridge.OpSend) {
		return m, nil, true
	}
	m.startSend(msg, draft.Text)
	m.setStatus("Sending reply...")
	return m, nil, true
}

func (m Model) resizeSidebar(delta int) (Model, tea.Cmd, bool) {
	w := m.layout.ClampSidebar(m.sidebarWidth + delta)
	if w == m.sidebarWidth {
		return m, nil, true
	}
	m.sidebarWidth = w
	m.layout.SidebarWidth = w
	m.resize()
	return m, m.saveSetting(model.SettingSidebarWidth, strconv.Itoa(w)), true
}

func (m *Model) startAccountForm() tea.Cmd {
	var existing *model.Account
	if m.account != "" {
		existing = &model.Account{Email: m.account}
	}
	return m.accountForm.Start(existing)
}

// handleResult applies a finished bridge job. Results from another
// session or for requests this model no longer tracks are ignored.
func (m Model) handleResult(msg bridge.ResultMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.session.ID() {
		return m, nil
	}
	req, ok := m.pending[msg.RequestID]
	if !ok {
		return m, nil
	}
	delete(m.pending, msg.RequestID)

	switch msg.Op {
	case bridge.OpSummarize:
		if req.messageID == m.detail.MessageID() {
			m.detail.SetSummary(section(msg))
		}
		return m, nil

	case bridge.OpReply:
		if req.messageID == m.detail.MessageID() {
			m.detail.SetDraft(section(msg))
		}
		return m, nil

	case bridge.OpChat:
		if msg.Failed() {
			m.chat.AddReply(userMessage(msg.Err), true)
			return m, nil
		}
		m.chat.AddReply(msg.Text, false)
		return m, nil

	case bridge.OpFetch:
		if msg.Failed() {
			m.setError(msg.Err)
			return m, nil
		}
		res, _ := msg.Value.(fetchResult)
		m.setStatus(fmt.Sprintf("Fetched %d messages from %s.", res.count, res.source))
		m.forgetMessageRequests()
		m.detail.Clear()
		if m.currentView == ViewDetail {
			m.currentView = ViewInbox
		}
		m.startCategorize()
		return m, m.inbox.LoadMessages()

	case bridge.OpCategorize:
		if msg.Failed() {
			m.setError(msg.Err)
			return m, m.inbox.LoadMessages()
		}
		report, _ := msg.Value.(categorize.Report)
		if s := categorizeStatus(report); s != "" {
			m.setStatus(s)
		}
		return m, m.inbox.LoadMessages()

	case bridge.OpSend:
		if msg.Failed() {
			m.setError(msg.Err)
			return m, nil
		}
		m.setStatus("Reply sent to " + msg.Text + ".")
		if req.messageID == m.detail.MessageID() {
			m.detail.SetDraft(detail.Section{})
		}
		return m, nil
	}

	return m, nil
}

// forgetMessageRequests drops pending summaries and drafts. After a fetch
// the ids they were issued for may name different messages.
func (m *Model) forgetMessageRequests() {
	for id, r := range m.pending {
		if r.op == bridge.OpSummarize || r.op == bridge.OpReply {
			delete(m.pending, id)
		}
	}
}

func section(msg bridge.ResultMsg) detail.Section {
	if msg.Failed() {
		return detail.Section{Err: userMessage(msg.Err)}
	}
	return detail.Section{Text: msg.Text, Degraded: msg.Degraded}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.session.Close()
	return m, tea.Quit
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.logger.Debug("showing error", zap.Error(err))
	m.status = userMessage(err)
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// resize pushes the layout's pane sizes to every sub-view.
func (m *Model) resize() {
	contentWidth := m.layout.ContentWidth()
	contentHeight := m.layout.ContentHeight()
	m.inbox.SetSize(m.layout.SidebarWidth, contentHeight)
	m.detail.SetSize(contentWidth, contentHeight)
	m.chat.SetSize(contentWidth, contentHeight)
	m.accountForm.SetSize(contentWidth, contentHeight)
	m.helpView.SetSize(contentWidth, contentHeight)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewChat:
		m.chat, cmd = m.chat.Update(msg)
	case ViewAccount:
		m.accountForm, cmd = m.accountForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "NeuralMail"
	if m.account != "" {
		title += " · " + m.account
	}
	header := m.layout.RenderHeader(title, m.activity())
	content := m.layout.RenderPanes(m.inbox.View(), m.renderContent())

	hints := m.keyHints()
	if m.status != "" {
		hints = m.status
	}
	statusBar := m.layout.RenderStatusBar(hints, m.statusErr)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the right-hand pane for the current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewChat:
		return m.chat.View()
	case ViewAccount:
		return m.accountForm.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return m.detail.View()
	}
}

// activity summarizes background work for the header.
func (m Model) activity() string {
	switch {
	case m.inFlight(bridge.OpFetch):
		return "fetching..."
	case m.inFlight(bridge.OpCategorize):
		return "categorizing..."
	default:
		return fmt.Sprintf("%d messages", m.inbox.Len())
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | s summarize | R draft reply | S send | j/k scroll"
	case ViewChat:
		return "enter send | ctrl+l clear | esc close"
	case ViewAccount:
		return "enter next | esc cancel"
	default:
		if summary := m.inbox.FilterSummary(); summary != "" {
			return summary + " | 0 clear"
		}
		return "q quit | ? help | / search | 1-5 category | r fetch | a ask | s summarize"
	}
}

func (m Model) helpInfo() helpview.Info {
	return helpview.Info{
		Account:  m.account,
		Endpoint: m.cfg.AI.ResolveEndpoint(),
		Model:    m.cfg.AI.Model,
		Theme:    m.themeMode,
		DevMode:  m.cfg.DevMode,
	}
}
