package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/faves/internal/models"
)

// Intent is invoked with the current drafts when its control is activated.
type Intent func(models.Credentials) tea.Cmd

// control is a form button bound to exactly one [Intent].
type control struct {
	label  string
	intent Intent
}

// focus positions, in tab order
const (
	focusUsername = iota
	focusPassword
	focusLogin
	focusRegister
	focusCount
)

// CredentialForm collects a username and password and offers Login and Register as two separate controls.
//
// Drafts live only in the form. Both controls are disabled while either draft is empty.
type CredentialForm struct {
	username textinput.Model
	password textinput.Model
	login    control
	register control
	focus    int
	keys     formKeyMap
	help     help.Model
}

// NewCredentialForm creates an empty form whose Login control calls onLogin and whose Register control calls
// onRegister.
func NewCredentialForm(onLogin, onRegister Intent) *CredentialForm {
	username := textinput.New()
	username.Prompt = "Username: "
	username.Placeholder = "username"
	username.CharLimit = 128

	password := textinput.New()
	password.Prompt = "Password: "
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return &CredentialForm{
		username: username,
		password: password,
		login:    control{label: "Login", intent: onLogin},
		register: control{label: "Register", intent: onRegister},
		keys:     newFormKeyMap(),
		help:     help.New(),
	}
}

// Credentials returns the current drafts.
func (f *CredentialForm) Credentials() models.Credentials {
	return models.Credentials{Username: f.username.Value(), Password: f.password.Value()}
}

// Enabled reports whether the Login and Register controls accept activation.
func (f *CredentialForm) Enabled() bool {
	return f.Credentials().Complete()
}

// SetDrafts replaces both drafts.
func (f *CredentialForm) SetDrafts(username, password string) {
	f.username.SetValue(username)
	f.password.SetValue(password)
}

// Login activates the Login control. It does nothing while disabled.
func (f *CredentialForm) Login() tea.Cmd {
	return f.activate(f.login)
}

// Register activates the Register control. It does nothing while disabled.
func (f *CredentialForm) Register() tea.Cmd {
	return f.activate(f.register)
}

func (f *CredentialForm) activate(c control) tea.Cmd {
	if !f.Enabled() || c.intent == nil {
		return nil
	}
	return c.intent(f.Credentials())
}

// Focus puts the cursor in the username field.
func (f *CredentialForm) Focus() tea.Cmd {
	return f.setFocus(focusUsername)
}

func (f *CredentialForm) setFocus(i int) tea.Cmd {
	f.focus = (i + focusCount) % focusCount
	f.username.Blur()
	f.password.Blur()

	switch f.focus {
	case focusUsername:
		return f.username.Focus()
	case focusPassword:
		return f.password.Focus()
	}
	return nil
}

// Update handles navigation and activation; other keys go to the focused text field.
func (f *CredentialForm) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, f.keys.next):
			return f.setFocus(f.focus + 1)
		case key.Matches(msg, f.keys.prev):
			return f.setFocus(f.focus - 1)
		case key.Matches(msg, f.keys.submit):
			switch f.focus {
			case focusLogin:
				return f.Login()
			case focusRegister:
				return f.Register()
			default:
				return f.setFocus(f.focus + 1)
			}
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case focusUsername:
		f.username, cmd = f.username.Update(msg)
	case focusPassword:
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

// View renders both fields, the two controls and a help line.
func (f *CredentialForm) View() string {
	var b strings.Builder
	b.WriteString(f.username.View())
	b.WriteString("\n")
	b.WriteString(f.password.View())
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		f.renderControl(f.login, f.focus == focusLogin),
		" ",
		f.renderControl(f.register, f.focus == focusRegister),
	))
	b.WriteString("\n\n")
	b.WriteString(f.help.ShortHelpView(f.keys.ShortHelp()))
	return b.String()
}

func (f *CredentialForm) renderControl(c control, focused bool) string {
	label := "[ " + c.label + " ]"
	switch {
	case !f.Enabled():
		return styles.help.Render(label)
	case focused:
		return styles.active.Render(label)
	default:
		return styles.button.Render(label)
	}
}
