package dialogs

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// MasterPasswordID is the overlay id of the master password dialog.
const MasterPasswordID = "master-password-settings"

// MasterPasswordChangedMsg is emitted after the master password was updated
type MasterPasswordChangedMsg struct{}

// MasterPassword changes the vault master password. It opens from the
// settings drawer and is its child, so closing settings cascades over it
// and over the reset confirmation below it.
type MasterPassword struct {
	current textinput.Model
	next    textinput.Model
	confirm textinput.Model

	focusIndex int
	errMsg     string

	change func(current, next string) error
	styles *styles.Styles
}

const (
	focusCurrent = iota
	focusNext
	focusConfirm
	mpFieldCount
)

// NewMasterPassword creates the dialog. change verifies the current password
// and swaps in the new one.
func NewMasterPassword(s *styles.Styles, change func(current, next string) error) *MasterPassword {
	mk := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.EchoMode = textinput.EchoPassword
		ti.CharLimit = 128
		ti.Width = 32
		return ti
	}

	m := &MasterPassword{
		current: mk("current password"),
		next:    mk("new password"),
		confirm: mk("repeat new password"),
		change:  change,
		styles:  s,
	}
	m.current.Focus()
	return m
}

// ID returns the overlay id
func (m *MasterPassword) ID() string { return MasterPasswordID }

// Title returns the dialog title
func (m *MasterPassword) Title() string { return "Master Password" }

// Size returns the dialog dimensions
func (m *MasterPassword) Size() (width, height int) { return 48, 12 }

// Definition describes the dialog to the orchestrator
func (m *MasterPassword) Definition() overlay.Definition {
	return overlay.Definition{
		ID:       MasterPasswordID,
		Kind:     overlay.KindModal,
		ParentID: SettingsID,
		Closed:   m.reset,
	}
}

func (m *MasterPassword) reset() {
	m.current.SetValue("")
	m.next.SetValue("")
	m.confirm.SetValue("")
	m.focusIndex = focusCurrent
	m.errMsg = ""
	m.applyFocus()
}

// Init implements tea.Model
func (m *MasterPassword) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m *MasterPassword) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab":
			if msg.String() == "tab" {
				m.focusIndex = (m.focusIndex + 1) % mpFieldCount
			} else {
				m.focusIndex = (m.focusIndex - 1 + mpFieldCount) % mpFieldCount
			}
			m.applyFocus()
			return m, nil

		case "enter":
			if m.focusIndex == focusConfirm {
				return m, m.submit()
			}
			m.focusIndex++
			m.applyFocus()
			return m, nil

		case "ctrl+r":
			// Forgotten password path: wipe everything instead
			return m, openCmd(ResetConfirmID, nil)
		}
	}

	ti := m.focusedInput()
	var cmd tea.Cmd
	*ti, cmd = ti.Update(msg)
	return m, cmd
}

func (m *MasterPassword) focusedInput() *textinput.Model {
	switch m.focusIndex {
	case focusNext:
		return &m.next
	case focusConfirm:
		return &m.confirm
	default:
		return &m.current
	}
}

func (m *MasterPassword) applyFocus() {
	m.current.Blur()
	m.next.Blur()
	m.confirm.Blur()
	m.focusedInput().Focus()
}

func (m *MasterPassword) submit() tea.Cmd {
	if m.next.Value() == "" {
		m.errMsg = "new password must not be empty"
		return nil
	}
	if m.next.Value() != m.confirm.Value() {
		m.errMsg = "passwords do not match"
		return nil
	}
	if err := m.change(m.current.Value(), m.next.Value()); err != nil {
		m.errMsg = err.Error()
		return nil
	}

	return tea.Batch(
		func() tea.Msg { return MasterPasswordChangedMsg{} },
		closeCmd(MasterPasswordID),
	)
}

// View implements tea.Model
func (m *MasterPassword) View() string {
	var b strings.Builder

	label := func(idx int, text string) string {
		style := m.styles.FieldLabel
		if m.focusIndex == idx {
			style = m.styles.MenuItemActive
		}
		return style.Render(text)
	}

	b.WriteString(label(focusCurrent, "Current:") + " " + m.current.View() + "\n")
	b.WriteString(label(focusNext, "New:") + "     " + m.next.View() + "\n")
	b.WriteString(label(focusConfirm, "Repeat:") + "  " + m.confirm.View() + "\n")

	if m.errMsg != "" {
		b.WriteString("\n" + m.styles.FieldError.Render(m.errMsg) + "\n")
	}

	b.WriteString("\n" + m.styles.Footer.Render("Enter: Next/Apply • Ctrl+R: Reset vault • Esc: Close"))
	return b.String()
}
