package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mansoorceksport/mobipent/internal/domain"
)

type tab int

const (
	tabHome tab = iota
	tabTools
	tabWholeTest
	tabUpload
	tabHistory
	tabCount
)

var tabNames = [tabCount]string{"Home", "Tools", "Whole Test", "Upload", "History"}

const (
	welcomeTitle    = "Welcome to MobiPent"
	welcomeSubtitle = "Analyze your mobile apps using OWASP Mobile Security Testing. Pick individual tools or run a full scan!"
	unreachableText = "Backend not reachable"
)

// homeState is everything behind the tab bar
type homeState struct {
	active     tab
	toolCursor int
	toolInput  textinput.Model

	// calls holds the last call to resolve per tab
	calls    [tabCount]*domain.Call
	selected domain.FileDescriptor
	inflight int
	status   string
	result   viewport.Model // scrollable view of calls[active]

	history    []*domain.HistoryEntry
	historyErr error
}

func newHomeState() homeState {
	ti := textinput.New()
	ti.Placeholder = domain.ToolStaticAnalysis
	ti.CharLimit = 100
	return homeState{toolInput: ti, result: viewport.New(0, 0)}
}

// syncResult sizes the result pane and loads the active tab's last call into it
func (h *homeState) syncResult(width, height int) {
	h.result.Width = max(width-4, 20)
	h.result.Height = max(height-14, 5)

	call := h.calls[h.active]
	switch {
	case call == nil:
		h.result.SetContent("")
	case call.State == domain.CallFailed:
		h.result.SetContent(errorStyle.Render(call.Display()))
	default:
		h.result.SetContent(call.Display())
	}
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "tab":
		return m.switchTab((m.home.active + 1) % tabCount)
	case "shift+tab":
		return m.switchTab((m.home.active - 1 + tabCount) % tabCount)
	case "ctrl+l":
		return m.logout()
	}

	if m.home.active == tabUpload && m.home.toolInput.Focused() {
		return m.updateUploadTab(msg)
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "1", "2", "3", "4", "5":
		return m.switchTab(tab(key[0] - '1'))
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.home.result, cmd = m.home.result.Update(msg)
		return m, cmd
	}

	switch m.home.active {
	case tabTools:
		return m.updateToolsTab(key)
	case tabWholeTest:
		if key == "enter" {
			return m.openPicker(pickTarget{tab: tabWholeTest})
		}
	case tabUpload:
		if key == "enter" || key == "i" {
			cmd := m.home.toolInput.Focus()
			return m, cmd
		}
	case tabHistory:
		switch key {
		case "r":
			return m, m.loadHistory()
		case "x":
			history, ctx := m.deps.History, m.deps.Ctx
			return m, func() tea.Msg {
				if err := history.Clear(ctx); err != nil {
					return historyMsg{err: err}
				}
				entries, err := history.Recent(ctx)
				return historyMsg{entries: entries, err: err}
			}
		}
	}
	return m, nil
}

func (m Model) switchTab(t tab) (tea.Model, tea.Cmd) {
	m.home.active = t
	m.home.status = ""
	m.home.syncResult(m.width, m.height)
	m.home.result.GotoTop()
	if t == tabUpload {
		cmd := m.home.toolInput.Focus()
		return m, cmd
	}
	m.home.toolInput.Blur()
	if t == tabHistory {
		return m, m.loadHistory()
	}
	return m, nil
}

func (m Model) updateToolsTab(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.home.toolCursor > 0 {
			m.home.toolCursor--
		}
	case "down", "j":
		if m.home.toolCursor < len(domain.Tools)-1 {
			m.home.toolCursor++
		}
	case "enter":
		tool := domain.Tools[m.home.toolCursor]
		m.home.status = "Checking backend..."
		uploads, ctx := m.deps.Uploads, m.deps.Ctx
		return m, func() tea.Msg {
			return pingDoneMsg{tool: tool, ok: uploads.Ping(ctx)}
		}
	}
	return m, nil
}

func (m Model) updateUploadTab(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.home.toolInput.Blur()
		return m, nil
	case "enter":
		tool := strings.TrimSpace(m.home.toolInput.Value())
		if tool == "" {
			tool = domain.ToolStaticAnalysis
		}
		return m.openPicker(pickTarget{tab: tabUpload, tool: tool})
	}

	var cmd tea.Cmd
	m.home.toolInput, cmd = m.home.toolInput.Update(msg)
	return m, cmd
}

// pingDone continues the Tools flow only when the backend answered
func (m Model) pingDone(msg pingDoneMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.home.status = unreachableText
		return m, nil
	}
	m.home.status = ""
	return m.openPicker(pickTarget{tab: tabTools, tool: msg.tool})
}

// startUpload launches one independent call; nothing waits for earlier ones
func (m Model) startUpload(target pickTarget, file domain.FileDescriptor) (tea.Model, tea.Cmd) {
	comprehensive := target.tab == tabWholeTest
	label := target.tool
	if comprehensive {
		label = domain.ToolWholeTest
		m.home.selected = file
	}

	call := domain.NewCall(label)
	m.home.inflight++
	m.home.status = ""

	uploads, ctx, gen := m.deps.Uploads, m.deps.Ctx, m.gen
	return m, func() tea.Msg {
		var result *domain.UploadResult
		var err error
		if comprehensive {
			result, err = uploads.WholeTest(ctx, file)
		} else {
			result, err = uploads.Upload(ctx, file, target.tool)
		}
		return callDoneMsg{gen: gen, tab: target.tab, call: call, result: result, err: err}
	}
}

// callDone shows whichever call resolved last
func (m Model) callDone(msg callDoneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		// started before a logout
		return m, nil
	}
	msg.call.Finish(msg.result, msg.err)
	m.home.calls[msg.tab] = msg.call
	if m.home.inflight > 0 {
		m.home.inflight--
	}
	if msg.tab == m.home.active {
		m.home.syncResult(m.width, m.height)
		m.home.result.GotoTop()
	}
	if m.home.active == tabHistory {
		return m, m.loadHistory()
	}
	return m, nil
}

func (m Model) loadHistory() tea.Cmd {
	history, ctx := m.deps.History, m.deps.Ctx
	if history == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := history.Recent(ctx)
		return historyMsg{entries: entries, err: err}
	}
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.deps.Auth.Logout(); err != nil {
		m.alert = "Logout failed: " + err.Error()
		return m, nil
	}
	m.screen = screenLogin
	m.gen++
	m.account = ""
	m.home = newHomeState()
	m.home.syncResult(m.width, m.height)
	m.login.reset()
	return m, nil
}

func (m Model) viewHome() string {
	var b strings.Builder

	b.WriteString(title())
	if m.account != "" {
		b.WriteString(dimStyle.Render("  Signed in as " + m.account))
	}
	b.WriteString("\n\n")

	for i, name := range tabNames {
		if tab(i) == m.home.active {
			b.WriteString(activeTabStyle.Render(name))
		} else {
			b.WriteString(tabStyle.Render(name))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")

	switch m.home.active {
	case tabHome:
		b.WriteString(titleStyle.Render(welcomeTitle) + "\n")
		b.WriteString(subtitleStyle.Render(welcomeSubtitle) + "\n")
	case tabTools:
		b.WriteString(m.viewTools())
	case tabWholeTest:
		b.WriteString(m.viewWholeTest())
	case tabUpload:
		b.WriteString(m.viewUpload())
	case tabHistory:
		b.WriteString(m.viewHistory())
	}

	b.WriteString("\n")
	if m.home.inflight > 0 {
		b.WriteString(pendingStyle.Render(fmt.Sprintf("⟳ %d request(s) in flight", m.home.inflight)) + "\n")
	}
	if m.home.status != "" {
		b.WriteString(errorStyle.Render(m.home.status) + "\n")
	}
	b.WriteString(m.renderHomeHelp())
	return b.String()
}

func (m Model) viewTools() string {
	var b strings.Builder
	for i, tool := range domain.Tools {
		if i == m.home.toolCursor {
			b.WriteString(selectedStyle.Render(tool))
		} else {
			b.WriteString(normalStyle.Render(tool))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.viewResult(tabTools))
	return b.String()
}

func (m Model) viewWholeTest() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Run every OWASP MASVS check on one file.") + "\n")
	if m.home.selected.URI != "" {
		b.WriteString(linkStyle.Render("Selected: "+m.home.selected.DisplayName()) + "\n")
	}
	b.WriteString(m.viewResult(tabWholeTest))
	return b.String()
}

func (m Model) viewUpload() string {
	var b strings.Builder
	b.WriteString(statusBarStyle.Render("Tool: ") + m.home.toolInput.View() + "\n")
	b.WriteString(m.viewResult(tabUpload))
	return b.String()
}

func (m Model) viewHistory() string {
	if m.deps.History == nil || !m.deps.History.Enabled() {
		return dimStyle.Render("History is disabled. Set HISTORY_BACKEND to redis or mongo.") + "\n"
	}
	if m.home.historyErr != nil {
		return errorStyle.Render("Error: "+m.home.historyErr.Error()) + "\n"
	}
	if len(m.home.history) == 0 {
		return dimStyle.Render("No uploads yet.") + "\n"
	}

	var b strings.Builder
	for _, e := range m.home.history {
		line := fmt.Sprintf("%s  %-9s  %-26s  %s",
			e.CreatedAt.Local().Format("01-02 15:04"), e.Status, e.Tool, e.FileName)
		if e.Error != "" {
			line += "  " + errorStyle.Render(e.Error)
		}
		b.WriteString(normalStyle.Render(line) + "\n")
	}
	return b.String()
}

// viewResult renders the last resolved call for t
func (m Model) viewResult(t tab) string {
	call := m.home.calls[t]
	if call == nil {
		return ""
	}

	head := dimStyle.Render(fmt.Sprintf("%s · %s · %s", call.Label, call.State, call.Duration().Round(time.Millisecond)))
	return "\n" + head + "\n" + resultStyle.Render(m.home.result.View()) + "\n"
}

func (m Model) renderHomeHelp() string {
	switch m.home.active {
	case tabTools:
		return helpStyle.Render("  ↑/↓: choose tool  Enter: run  PgUp/PgDn: scroll  Tab: next tab  Ctrl+L: log out  q: quit")
	case tabWholeTest:
		return helpStyle.Render("  Enter: pick file and scan  PgUp/PgDn: scroll  Tab: next tab  Ctrl+L: log out  q: quit")
	case tabUpload:
		if m.home.toolInput.Focused() {
			return helpStyle.Render("  Enter: pick file and upload  Esc: stop typing  Tab: next tab")
		}
		return helpStyle.Render("  i: edit tool  PgUp/PgDn: scroll  Tab: next tab  Ctrl+L: log out  q: quit")
	case tabHistory:
		return helpStyle.Render("  r: reload  x: clear  Tab: next tab  Ctrl+L: log out  q: quit")
	}
	return helpStyle.Render("  Tab: next tab  1-5: jump  Ctrl+L: log out  q: quit")
}
