package account

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/theme"
)

// SubmittedMsg is dispatched when the form is completed. The password is
// handed to the credential vault and never stored with the account.
type SubmittedMsg struct {
	Account  model.Account
	Password string
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
	imapHost string
	imapPort string
	smtpHost string
	smtpPort string
	demo     bool
}

// Model is the Bubble Tea model for the account form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	width    int
	height   int
}

// New creates a new account form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form. When existing is non-nil its server settings
// are prefilled and the password may be left blank to keep the stored one.
func (m *Model) Start(existing *model.Account) tea.Cmd {
	*m.fb = formBindings{imapPort: "993", smtpPort: "587"}
	m.editMode = existing != nil
	if existing != nil {
		m.fb.email = existing.Email
		m.fb.imapHost = existing.IMAPHost
		m.fb.smtpHost = existing.SMTPHost
		m.fb.demo = existing.IsDemo
		if existing.IMAPPort > 0 {
			m.fb.imapPort = strconv.Itoa(existing.IMAPPort)
		}
		if existing.SMTPPort > 0 {
			m.fb.smtpPort = strconv.Itoa(existing.SMTPPort)
		}
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the account form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the account form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "Add Account"
	if m.editMode {
		titleText = "Edit Account"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	passwordTitle := "Password"
	if m.editMode {
		passwordTitle = "Password (leave blank to keep)"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title(passwordTitle).
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
			huh.NewConfirm().
				Title("Demo account?").
				Description("Demo accounts use built-in sample mail and never connect to a server.").
				Value(&m.fb.demo),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP host").
				Placeholder("imap.example.com").
				Value(&m.fb.imapHost),
			huh.NewInput().
				Title("IMAP port").
				Value(&m.fb.imapPort).
				Validate(validatePort),
			huh.NewInput().
				Title("SMTP host").
				Placeholder("smtp.example.com").
				Value(&m.fb.smtpHost),
			huh.NewInput().
				Title("SMTP port").
				Value(&m.fb.smtpPort).
				Validate(validatePort),
		).WithHideFunc(func() bool { return m.fb.demo }),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	acct, password := m.fb.account()
	return func() tea.Msg { return SubmittedMsg{Account: acct, Password: password} }
}

func (fb *formBindings) account() (model.Account, string) {
	acct := model.Account{
		Email:  strings.TrimSpace(fb.email),
		IsDemo: fb.demo,
	}
	if !fb.demo {
		acct.IMAPHost = strings.TrimSpace(fb.imapHost)
		acct.SMTPHost = strings.TrimSpace(fb.smtpHost)
		acct.IMAPPort, _ = strconv.Atoi(strings.TrimSpace(fb.imapPort))
		acct.SMTPPort, _ = strconv.Atoi(strings.TrimSpace(fb.smtpPort))
	}
	return acct, fb.password
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("not a valid address")
	}
	return nil
}

func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be 1-65535")
	}
	return nil
}
