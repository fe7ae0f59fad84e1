package dialogs

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// ResetConfirmID is the overlay id of the vault reset confirmation.
const ResetConfirmID = "reset-confirm"

// VaultResetMsg is emitted after the vault has been wiped
type VaultResetMsg struct{}

// ResetConfirm asks for confirmation before wiping the vault. It stacks on
// top of the master password dialog as its child.
type ResetConfirm struct {
	selected bool // true = Yes, false = No
	errMsg   string
	reset    func() error
	styles   *styles.Styles
}

// NewResetConfirm creates the confirmation dialog. reset deletes all stored
// profiles and clears the master password.
func NewResetConfirm(s *styles.Styles, reset func() error) *ResetConfirm {
	return &ResetConfirm{
		reset:  reset,
		styles: s,
	}
}

// ID returns the overlay id
func (c *ResetConfirm) ID() string { return ResetConfirmID }

// Title returns the dialog title
func (c *ResetConfirm) Title() string { return "Reset vault?" }

// Size returns the dialog dimensions
func (c *ResetConfirm) Size() (width, height int) { return 56, 8 }

// Definition describes the dialog to the orchestrator
func (c *ResetConfirm) Definition() overlay.Definition {
	return overlay.Definition{
		ID:       ResetConfirmID,
		Kind:     overlay.KindModal,
		ParentID: MasterPasswordID,
		Closed: func() {
			c.selected = false
			c.errMsg = ""
		},
	}
}

// Init implements tea.Model
func (c *ResetConfirm) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (c *ResetConfirm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "y", "Y":
			return c, c.confirm()

		case "n", "N":
			return c, closeCmd(ResetConfirmID)

		case "enter":
			if c.selected {
				return c, c.confirm()
			}
			return c, closeCmd(ResetConfirmID)

		case "left", "h":
			c.selected = false
			return c, nil

		case "right", "l", "tab":
			c.selected = true
			return c, nil
		}
	}
	return c, nil
}

func (c *ResetConfirm) confirm() tea.Cmd {
	if err := c.reset(); err != nil {
		c.errMsg = err.Error()
		return nil
	}
	return tea.Batch(
		func() tea.Msg { return VaultResetMsg{} },
		closeCmd(ResetConfirmID),
	)
}

// View renders the dialog
func (c *ResetConfirm) View() string {
	var b strings.Builder

	b.WriteString(c.styles.MenuItem.Render("This deletes every profile and clears the master password."))
	b.WriteString("\n\n")

	yesStyle := c.styles.MenuItem
	noStyle := c.styles.MenuItem
	if c.selected {
		yesStyle = c.styles.MenuItemActive
	} else {
		noStyle = c.styles.MenuItemActive
	}

	b.WriteString(yesStyle.Render("[Y] Wipe it") + "    " + noStyle.Render("[N] Keep it"))
	b.WriteString("\n")

	if c.errMsg != "" {
		b.WriteString("\n" + c.styles.FieldError.Render(c.errMsg) + "\n")
	}

	b.WriteString("\n" + c.styles.Footer.Render("← → / Tab: Switch • Enter: Confirm • Esc: Cancel"))
	return b.String()
}
