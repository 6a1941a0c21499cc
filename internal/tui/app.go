package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/service"
)

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenHome
)

// Deps are the services the shell drives
type Deps struct {
	Auth     *service.AuthService
	Uploads  *service.UploadService
	History  *service.HistoryService
	Ctx      context.Context
	StartDir string
}

// Model is the root bubbletea model for the MobiPent shell
type Model struct {
	deps Deps

	screen screen
	width  int
	height int

	login  authForm
	signup authForm
	alert  string
	busy   bool // auth request in flight

	home    homeState
	account string // signed-in email, read once per session
	gen     int    // bumped on logout so late results are dropped

	picker  *pickerModel
	pickFor pickTarget

	quitting bool
}

// messages returned by commands
type (
	loginDoneMsg  struct{ err error }
	signupDoneMsg struct{ err error }
	pingDoneMsg   struct {
		tool string
		ok   bool
	}
	callDoneMsg struct {
		gen    int
		tab    tab
		call   *domain.Call
		result *domain.UploadResult
		err    error
	}
	historyMsg struct {
		entries []*domain.HistoryEntry
		err     error
	}

	// pickerResizeMsg sizes a freshly opened picker without touching the shell
	pickerResizeMsg tea.WindowSizeMsg
)

// NewModel builds the shell. A stored session skips the login screen.
func NewModel(deps Deps) Model {
	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}

	m := Model{
		deps:   deps,
		screen: screenLogin,
		login:  newAuthForm(),
		signup: newAuthForm(),
		home:   newHomeState(),
		width:  100,
		height: 30,
	}
	if deps.Auth != nil && deps.Auth.Session().LoggedIn() {
		m.screen = screenHome
		m.login.blur()
		m.account = accountEmail(deps.Auth)
	}
	m.home.syncResult(m.width, m.height)
	return m
}

// accountEmail decodes the stored token; the header shows nothing when it cannot
func accountEmail(auth *service.AuthService) string {
	claims, err := auth.Session().Claims()
	if err != nil || claims == nil {
		return ""
	}
	return claims.Email()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.home.syncResult(m.width, m.height)
		if m.picker != nil {
			return m.updatePicker(m.pickerSize())
		}
		return m, nil

	case pickerResizeMsg:
		if m.picker == nil {
			return m, nil
		}
		return m.updatePicker(tea.WindowSizeMsg(msg))

	case loginDoneMsg:
		return m.loginDone(msg)
	case signupDoneMsg:
		return m.signupDone(msg)
	case pingDoneMsg:
		return m.pingDone(msg)
	case callDoneMsg:
		return m.callDone(msg)
	case historyMsg:
		m.home.history = msg.entries
		m.home.historyErr = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.alert != "" {
			m.alert = ""
			return m, nil
		}
		if m.picker != nil {
			return m.updatePicker(msg)
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenSignup:
			return m.updateSignup(msg)
		default:
			return m.updateHome(msg)
		}
	}

	// filepicker directory reads and cursor blinks
	if m.picker != nil {
		return m.updatePicker(msg)
	}
	if m.screen != screenHome {
		return m.updateFormInputs(msg)
	}
	if m.home.active == tabUpload {
		var cmd tea.Cmd
		m.home.toolInput, cmd = m.home.toolInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch {
	case m.picker != nil:
		body = m.picker.View()
	case m.screen == screenLogin:
		body = m.viewAuthForm("Login", m.login, "Enter: log in  Tab: next field  Ctrl+N: create account  Ctrl+C: quit")
	case m.screen == screenSignup:
		body = m.viewAuthForm("Sign Up", m.signup, "Enter: create account  Tab: next field  Esc: back to login")
	default:
		body = m.viewHome()
	}

	if m.alert != "" {
		box := alertStyle.Render(m.alert + "\n\n" + dimStyle.Render("press any key"))
		body = body + "\n\n" + box
	}
	return body
}

// Alert returns the message currently shown in the alert box
func (m Model) Alert() string {
	return m.alert
}

func (m Model) pickerSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.width, Height: max(m.height-6, 5)}
}

// pickTarget remembers what the file is being picked for
type pickTarget struct {
	tab  tab
	tool string // unused on the Whole Test tab
}

func (m Model) openPicker(target pickTarget) (Model, tea.Cmd) {
	p := newPicker(m.deps.StartDir)
	m.picker = &p
	m.pickFor = target
	size := pickerResizeMsg(m.pickerSize())
	return m, tea.Batch(p.Init(), func() tea.Msg { return size })
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	p, cmd := m.picker.Update(msg)
	if !p.done {
		m.picker = &p
		return m, cmd
	}

	m.picker = nil
	if p.err != nil {
		// cancelled: nothing is sent
		return m, nil
	}
	return m.startUpload(m.pickFor, p.file)
}

func title() string {
	return titleStyle.Render("MobiPent")
}
