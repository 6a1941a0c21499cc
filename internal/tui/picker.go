package tui

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mansoorceksport/mobipent/internal/domain"
	"github.com/mansoorceksport/mobipent/internal/repository"
)

// pickerModel browses the local filesystem, or takes a typed URI for
// s3:// and http(s):// locations. Esc is the cancel signal.
type pickerModel struct {
	fp       filepicker.Model
	uriInput textinput.Model
	typing   bool
	done     bool
	file     domain.FileDescriptor
	err      error
}

func newPicker(startDir string) pickerModel {
	fp := filepicker.New()
	fp.CurrentDirectory = startDir
	fp.ShowPermissions = false
	fp.ShowSize = true

	ui := textinput.New()
	ui.Placeholder = "s3://bucket/app.apk or https://..."
	ui.CharLimit = 1024

	return pickerModel{fp: fp, uriInput: ui}
}

func (p pickerModel) Init() tea.Cmd {
	return p.fp.Init()
}

// Update returns the picker with done set once a file is chosen or the user cancelled
func (p pickerModel) Update(msg tea.Msg) (pickerModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if p.typing {
			return p.updateTyping(key)
		}
		switch key.String() {
		case "esc", "q":
			p.done = true
			p.err = domain.ErrCancelled
			return p, nil
		case "u":
			p.typing = true
			p.err = nil
			cmd := p.uriInput.Focus()
			return p, cmd
		}
	}

	var cmd tea.Cmd
	p.fp, cmd = p.fp.Update(msg)

	if didSelect, path := p.fp.DidSelectFile(msg); didSelect {
		p.choose(path)
	}
	return p, cmd
}

func (p pickerModel) updateTyping(key tea.KeyMsg) (pickerModel, tea.Cmd) {
	switch key.String() {
	case "esc":
		p.typing = false
		p.uriInput.Blur()
		return p, nil
	case "enter":
		uri := strings.TrimSpace(p.uriInput.Value())
		if uri == "" {
			return p, nil
		}
		p.choose(uri)
		if !p.done {
			return p, nil
		}
		p.typing = false
		p.uriInput.Blur()
		return p, nil
	}

	var cmd tea.Cmd
	p.uriInput, cmd = p.uriInput.Update(key)
	return p, cmd
}

// choose describes uri; a bad location keeps the picker open with the error shown
func (p *pickerModel) choose(uri string) {
	file, err := repository.DescribeURI(uri)
	if err != nil {
		p.err = err
		return
	}
	p.file = file
	p.err = nil
	p.done = true
}

func (p pickerModel) View() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Pick a file: "+p.fp.CurrentDirectory) + "\n\n")
	if p.typing {
		b.WriteString(statusBarStyle.Render("URI: ") + p.uriInput.View() + "\n")
	} else {
		b.WriteString(p.fp.View() + "\n")
	}
	if p.err != nil && !errors.Is(p.err, domain.ErrCancelled) {
		b.WriteString(errorStyle.Render(p.err.Error()) + "\n")
	}
	if p.typing {
		b.WriteString(helpStyle.Render("  Enter: use URI  Esc: back to browser"))
	} else {
		b.WriteString(helpStyle.Render("  ↑/↓: move  ←/→: folder  Enter: select  u: type URI  Esc: cancel"))
	}
	return b.String()
}

// standalonePicker runs pickerModel as its own program
type standalonePicker struct {
	picker pickerModel
}

func (s standalonePicker) Init() tea.Cmd {
	return s.picker.Init()
}

func (s standalonePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		s.picker.done = true
		s.picker.err = domain.ErrCancelled
		return s, tea.Quit
	}
	var cmd tea.Cmd
	s.picker, cmd = s.picker.Update(msg)
	if s.picker.done {
		return s, tea.Quit
	}
	return s, cmd
}

func (s standalonePicker) View() string {
	if s.picker.done {
		return ""
	}
	return s.picker.View()
}

// FilePicker implements domain.FilePicker with an interactive terminal browser.
// It draws on stderr so stdout stays clean for results.
type FilePicker struct {
	StartDir string
}

// Pick blocks until the user selects a file or cancels
func (f FilePicker) Pick(ctx context.Context) (domain.FileDescriptor, error) {
	dir := f.StartDir
	if dir == "" {
		dir, _ = os.Getwd()
	}

	final, err := tea.NewProgram(
		standalonePicker{picker: newPicker(dir)},
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
	).Run()
	if err != nil {
		return domain.FileDescriptor{}, err
	}

	picked := final.(standalonePicker).picker
	if !picked.done || picked.err != nil {
		return domain.FileDescriptor{}, domain.ErrCancelled
	}
	return picked.file, nil
}
