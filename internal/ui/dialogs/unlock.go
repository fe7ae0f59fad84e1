package dialogs

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// UnlockID is the overlay id of the master password prompt.
const UnlockID = "unlock"

// Unlock prompts for the master password on startup. It is non-dismissable
// and its close guard vetoes until the password has been verified, so the
// application cannot be used while the vault is locked.
type Unlock struct {
	input    textinput.Model
	verify   func(string) bool
	unlocked bool
	errMsg   string
	styles   *styles.Styles
}

// NewUnlock creates the unlock dialog. verify is called with the entered
// password and reports whether it matches the master password.
func NewUnlock(s *styles.Styles, verify func(string) bool) *Unlock {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "master password"
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 128
	ti.Width = 40
	ti.Focus()

	return &Unlock{
		input:  ti,
		verify: verify,
		styles: s,
	}
}

// ID returns the overlay id
func (u *Unlock) ID() string { return UnlockID }

// Title returns the dialog title
func (u *Unlock) Title() string { return "Unlock vault" }

// Size returns the dialog dimensions
func (u *Unlock) Size() (width, height int) { return 50, 6 }

// Definition describes the dialog to the orchestrator
func (u *Unlock) Definition() overlay.Definition {
	return overlay.Definition{
		ID:             UnlockID,
		Kind:           overlay.KindModal,
		NonDismissable: true,
		BeforeClose: func(ctx context.Context) (bool, error) {
			return u.unlocked, nil
		},
		Closed: func() {
			u.input.SetValue("")
			u.errMsg = ""
		},
	}
}

// Init implements tea.Model
func (u *Unlock) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (u *Unlock) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			if u.verify(u.input.Value()) {
				u.unlocked = true
				return u, tea.Batch(
					closeCmd(UnlockID),
					func() tea.Msg {
						return SelectionMsg{ID: UnlockID, Key: "unlocked"}
					},
				)
			}
			u.errMsg = "wrong password"
			u.input.SetValue("")
			return u, nil
		}
	}

	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}

// View implements tea.Model
func (u *Unlock) View() string {
	out := u.styles.FieldLabel.Render("Enter the master password to continue") + "\n\n"
	out += u.input.View() + "\n"
	if u.errMsg != "" {
		out += u.styles.FieldError.Render(u.errMsg) + "\n"
	}
	out += "\n" + u.styles.Footer.Render("Enter: Unlock")
	return out
}
