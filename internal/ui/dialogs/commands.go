package dialogs

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/domain"
	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// CommandsID is the overlay id of the saved command palette.
const CommandsID = "commands"

// CommandChosenMsg is emitted when a saved command is picked
type CommandChosenMsg struct {
	Command domain.SavedCommand
}

// Commands is a fuzzy palette over the saved ssh commands in the store.
// Importing a command seeds the profile form through the "command" prop and
// opens it, chaining the two dialogs.
type Commands struct {
	filter textinput.Model
	all    []domain.SavedCommand
	cursor int

	orch   *overlay.Orchestrator
	load   func() ([]domain.SavedCommand, error)
	styles *styles.Styles
	errMsg string
}

// NewCommands creates the palette. load fetches the saved commands, called
// every time the palette opens.
func NewCommands(s *styles.Styles, orch *overlay.Orchestrator, load func() ([]domain.SavedCommand, error)) *Commands {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "filter commands..."
	ti.CharLimit = 100
	ti.Width = 46
	ti.Focus()

	return &Commands{
		filter: ti,
		orch:   orch,
		load:   load,
		styles: s,
	}
}

// ID returns the overlay id
func (c *Commands) ID() string { return CommandsID }

// Title returns the dialog title
func (c *Commands) Title() string { return "Saved Commands" }

// Size returns the dialog dimensions
func (c *Commands) Size() (width, height int) { return 56, 16 }

// Definition describes the palette to the orchestrator
func (c *Commands) Definition() overlay.Definition {
	return overlay.Definition{
		ID:     CommandsID,
		Kind:   overlay.KindModal,
		Opened: c.refresh,
		Closed: func() {
			c.filter.SetValue("")
			c.cursor = 0
			c.errMsg = ""
		},
	}
}

func (c *Commands) refresh() {
	cmds, err := c.load()
	if err != nil {
		c.errMsg = err.Error()
		return
	}
	c.all = cmds
	c.errMsg = ""
}

// matches returns the commands matching the current filter
func (c *Commands) matches() []domain.SavedCommand {
	q := strings.ToLower(strings.TrimSpace(c.filter.Value()))
	if q == "" {
		return c.all
	}
	var out []domain.SavedCommand
	for _, cmd := range c.all {
		if strings.Contains(strings.ToLower(cmd.Name), q) ||
			strings.Contains(strings.ToLower(cmd.Command), q) {
			out = append(out, cmd)
		}
	}
	return out
}

// Init implements tea.Model
func (c *Commands) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (c *Commands) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "ctrl+k":
			if c.cursor > 0 {
				c.cursor--
			}
			return c, nil

		case "down", "ctrl+j":
			if c.cursor < len(c.matches())-1 {
				c.cursor++
			}
			return c, nil

		case "enter":
			m := c.matches()
			if c.cursor >= len(m) {
				return c, nil
			}
			chosen := m[c.cursor]
			return c, tea.Batch(
				func() tea.Msg { return CommandChosenMsg{Command: chosen} },
				closeCmd(CommandsID),
			)

		case "ctrl+o":
			// Import as profile: stash the command on the form, then open it
			m := c.matches()
			if c.cursor >= len(m) {
				return c, nil
			}
			chosen := m[c.cursor]
			if err := c.orch.SetProp(ProfileFormID, "command", chosen.Command); err != nil {
				c.errMsg = err.Error()
				return c, nil
			}
			return c, tea.Batch(
				closeCmd(CommandsID),
				openCmd(ProfileFormID, nil),
			)
		}
	}

	prev := c.filter.Value()
	var cmd tea.Cmd
	c.filter, cmd = c.filter.Update(msg)
	if c.filter.Value() != prev {
		c.cursor = 0
	}
	return c, cmd
}

// View implements tea.Model
func (c *Commands) View() string {
	var b strings.Builder

	b.WriteString(c.filter.View())
	b.WriteString("\n\n")

	m := c.matches()
	if len(m) == 0 {
		b.WriteString(c.styles.MenuItemDisabled.Render("no saved commands"))
		b.WriteString("\n")
	}

	for i, cmd := range m {
		style := c.styles.MenuItem
		if i == c.cursor {
			style = c.styles.MenuItemActive
		}
		b.WriteString(style.Render(cmd.Name))
		b.WriteString("  ")
		b.WriteString(c.styles.Footer.Render(cmd.Command))
		b.WriteString("\n")
	}

	if c.errMsg != "" {
		b.WriteString("\n" + c.styles.FieldError.Render(c.errMsg) + "\n")
	}

	b.WriteString("\n" + c.styles.Footer.Render("↑↓: Move • Enter: Choose • Ctrl+O: Import as profile • Esc: Close"))
	return b.String()
}
