package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mansoorceksport/mobipent/internal/service"
)

const (
	fieldEmail = iota
	fieldPassword
	fieldCount
)

// authForm is the email/password pair shared by login and signup
type authForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
}

func newAuthForm() authForm {
	ei := textinput.New()
	ei.Placeholder = "Email"
	ei.CharLimit = 254
	ei.Focus()

	pi := textinput.New()
	pi.Placeholder = "Password"
	pi.CharLimit = 128
	pi.EchoMode = textinput.EchoPassword
	pi.EchoCharacter = '•'

	return authForm{email: ei, password: pi, focus: fieldEmail}
}

func (f *authForm) next() {
	f.blur()
	f.focus = (f.focus + 1) % fieldCount
	f.focusCurrent()
}

func (f *authForm) blur() {
	f.email.Blur()
	f.password.Blur()
}

func (f *authForm) focusCurrent() {
	if f.focus == fieldEmail {
		f.email.Focus()
	} else {
		f.password.Focus()
	}
}

func (f *authForm) reset() {
	f.email.SetValue("")
	f.password.SetValue("")
	f.blur()
	f.focus = fieldEmail
	f.focusCurrent()
}

func (f authForm) values() (string, string) {
	return f.email.Value(), f.password.Value()
}

func (f authForm) update(msg tea.Msg) (authForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == fieldEmail {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "down", "up":
		m.login.next()
		return m, nil
	case "ctrl+n":
		m.screen = screenSignup
		m.signup.reset()
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		auth, ctx := m.deps.Auth, m.deps.Ctx
		email, password := m.login.values()
		return m, func() tea.Msg {
			return loginDoneMsg{err: auth.Login(ctx, email, password)}
		}
	}

	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) updateSignup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenLogin
		return m, nil
	case "tab", "shift+tab", "down", "up":
		m.signup.next()
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		auth, ctx := m.deps.Auth, m.deps.Ctx
		email, password := m.signup.values()
		return m, func() tea.Msg {
			_, err := auth.Signup(ctx, email, password)
			return signupDoneMsg{err: err}
		}
	}

	var cmd tea.Cmd
	m.signup, cmd = m.signup.update(msg)
	return m, cmd
}

// updateFormInputs forwards non-key messages such as cursor blinks
func (m Model) updateFormInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.screen == screenSignup {
		m.signup, cmd = m.signup.update(msg)
	} else {
		m.login, cmd = m.login.update(msg)
	}
	return m, cmd
}

func (m Model) loginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.alert = service.LoginErrorMessage(msg.err)
		return m, nil
	}
	m.login.reset()
	m.login.blur()
	m.screen = screenHome
	m.account = accountEmail(m.deps.Auth)
	m.home.active = tabHome
	return m, nil
}

func (m Model) signupDone(msg signupDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.alert = service.SignupErrorMessage(msg.err)
		return m, nil
	}
	m.alert = service.SignupSuccessMessage
	m.screen = screenLogin
	m.login.reset()
	return m, nil
}

func (m Model) viewAuthForm(heading string, f authForm, help string) string {
	label := func(text string, focused bool) string {
		style := lipgloss.NewStyle().Width(10)
		if focused {
			style = style.Bold(true).Foreground(lipgloss.Color("42"))
		} else {
			style = style.Foreground(lipgloss.Color("252"))
		}
		return style.Render(text)
	}

	var b strings.Builder
	b.WriteString(title() + dimStyle.Render("  "+heading) + "\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n\n", label("Email", f.focus == fieldEmail), f.email.View()))
	b.WriteString(fmt.Sprintf("%s %s\n\n", label("Password", f.focus == fieldPassword), f.password.View()))
	if m.busy {
		b.WriteString(pendingStyle.Render("Please wait...") + "\n\n")
	}
	b.WriteString(helpStyle.Render("  " + help))
	return b.String()
}
