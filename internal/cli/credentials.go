package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/inovacc/gerritconn/internal/credential"
)

const fmtField = " %s\n %s\n\n"

const (
	inputURL = iota
	inputUsername
	inputPassword
	inputCount
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle  = focusedStyle
	noStyle      = lipgloss.NewStyle()
	helpStyle    = blurredStyle

	focusedButton = focusedStyle.Render("[ Save ]")
	blurredButton = fmt.Sprintf("[ %s ]", blurredStyle.Render("Save"))
)

// ErrCancelled is reported when the form is closed without saving.
var ErrCancelled = errors.New("credentials form cancelled")

// SaveFunc persists the credentials entered in the form.
type SaveFunc func(credential.Set) error

// CredentialsModel is a form editing the Gerrit URL, username and password.
type CredentialsModel struct {
	focusIndex int
	inputs     []textinput.Model
	save       SaveFunc

	Saved bool
	Err   error
}

// NewCredentialsModel prefills the form with current. The password is
// never shown, only masked.
func NewCredentialsModel(current credential.Set, save SaveFunc) *CredentialsModel {
	m := &CredentialsModel{
		inputs: make([]textinput.Model, inputCount),
		save:   save,
	}

	for i := range m.inputs {
		t := textinput.New()
		t.Cursor.Style = cursorStyle
		t.CharLimit = 512

		switch i {
		case inputURL:
			t.Placeholder = "https://review.example.org"
			t.SetValue(current.URL.Value())
			t.Focus()
			t.PromptStyle = focusedStyle
			t.TextStyle = focusedStyle
		case inputUsername:
			t.Placeholder = "username"
			t.SetValue(current.Username.Value())
		case inputPassword:
			t.Placeholder = "HTTP password"
			t.EchoMode = textinput.EchoPassword
			t.EchoCharacter = '•'
			t.SetValue(current.Password.Value())
		}

		m.inputs[i] = t
	}

	return m
}

// Credentials returns the values currently entered.
func (m *CredentialsModel) Credentials() credential.Set {
	return credential.New(
		m.inputs[inputURL].Value(),
		m.inputs[inputUsername].Value(),
		m.inputs[inputPassword].Value(),
	)
}

func (m *CredentialsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *CredentialsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case successMsg:
		m.Saved = true
		return m, tea.Quit
	case errMsg:
		m.Err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.Err = ErrCancelled
			return m, tea.Quit

		case "tab", "shift+tab", "enter", "up", "down":
			s := msg.String()

			if s == "enter" && m.focusIndex == len(m.inputs) {
				return m, m.submit
			}

			if s == "up" || s == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}

			if m.focusIndex > len(m.inputs) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = len(m.inputs)
			}

			return m, m.focus()
		}
	}

	return m, m.updateInputs(msg)
}

func (m *CredentialsModel) focus() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))

	for i := range m.inputs {
		if i == m.focusIndex {
			cmds[i] = m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedStyle
			m.inputs[i].TextStyle = focusedStyle

			continue
		}

		m.inputs[i].Blur()
		m.inputs[i].PromptStyle = noStyle
		m.inputs[i].TextStyle = noStyle
	}

	return tea.Batch(cmds...)
}

func (m *CredentialsModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))

	// Only the focused input reacts to key presses.
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}

	return tea.Batch(cmds...)
}

func (m *CredentialsModel) View() string {
	if m.Saved {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render("\n  ✓ Credentials saved\n\n")
	}

	if m.Err != nil && !errors.Is(m.Err, ErrCancelled) {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Render(fmt.Sprintf("\n  ✗ Error: %v\n\n", m.Err))
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	s := headerStyle.Render("Gerrit Credentials") + "\n"
	s += blurredStyle.Render("Use the HTTP password generated in Gerrit's settings page") + "\n\n"
	s += fmt.Sprintf(fmtField, blurredStyle.Render("Server URL:"), m.inputs[inputURL].View())
	s += fmt.Sprintf(fmtField, blurredStyle.Render("Username:"), m.inputs[inputUsername].View())
	s += fmt.Sprintf(fmtField, blurredStyle.Render("Password:"), m.inputs[inputPassword].View())

	button := &blurredButton
	if m.focusIndex == len(m.inputs) {
		button = &focusedButton
	}

	s += fmt.Sprintf("\n %s\n\n", *button)
	s += helpStyle.Render(" tab/shift+tab: navigate • enter: save • esc: cancel")

	return s
}

func (m *CredentialsModel) submit() tea.Msg {
	set := m.Credentials()
	if err := set.Validate(); err != nil {
		return errMsg{err}
	}

	if m.save != nil {
		if err := m.save(set); err != nil {
			return errMsg{err}
		}
	}

	return successMsg{}
}

type successMsg struct{}
type errMsg struct{ err error }
