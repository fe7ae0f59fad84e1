package dialogs

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/config"
	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// SettingsID is the overlay id of the settings drawer.
const SettingsID = "settings"

// SettingsSavedMsg is emitted after settings have been persisted
type SettingsSavedMsg struct {
	Config config.Config
}

// Settings is a drawer listing application settings. It is the parent of the
// master password dialog, so closing it cascades over that whole subtree.
type Settings struct {
	cfg    config.Config
	save   func(config.Config) error
	cursor int
	errMsg string
	styles *styles.Styles
}

var settingsRows = []string{
	"Theme",
	"Transition (ms)",
	"Vault enabled",
	"Lock after (min)",
	"Master password...",
}

var themes = []string{"macchiato", "mocha", "latte"}

// NewSettings creates the settings drawer over the given loaded config.
func NewSettings(s *styles.Styles, cfg config.Config, save func(config.Config) error) *Settings {
	return &Settings{
		cfg:    cfg,
		save:   save,
		styles: s,
	}
}

// ID returns the overlay id
func (s *Settings) ID() string { return SettingsID }

// Title returns the dialog title
func (s *Settings) Title() string { return "Settings" }

// Size returns the drawer dimensions
func (s *Settings) Size() (width, height int) { return 44, 14 }

// Definition describes the drawer to the orchestrator
func (s *Settings) Definition() overlay.Definition {
	return overlay.Definition{
		ID:   SettingsID,
		Kind: overlay.KindDrawer,
	}
}

// Config returns the current (possibly unsaved) settings
func (s *Settings) Config() config.Config { return s.cfg }

// Init implements tea.Model
func (s *Settings) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (s *Settings) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
			return s, nil

		case "down", "j":
			if s.cursor < len(settingsRows)-1 {
				s.cursor++
			}
			return s, nil

		case "left", "h":
			s.adjust(-1)
			return s, nil

		case "right", "l", " ":
			s.adjust(1)
			return s, nil

		case "enter":
			if s.cursor == 4 {
				return s, openCmd(MasterPasswordID, nil)
			}
			s.adjust(1)
			return s, nil

		case "ctrl+s":
			if err := s.save(s.cfg); err != nil {
				s.errMsg = err.Error()
				return s, nil
			}
			s.errMsg = ""
			cfg := s.cfg
			return s, func() tea.Msg {
				return SettingsSavedMsg{Config: cfg}
			}
		}
	}
	return s, nil
}

// adjust changes the value under the cursor by the given direction
func (s *Settings) adjust(dir int) {
	switch s.cursor {
	case 0:
		idx := 0
		for i, t := range themes {
			if t == s.cfg.UI.Theme {
				idx = i
			}
		}
		idx = (idx + dir + len(themes)) % len(themes)
		s.cfg.UI.Theme = themes[idx]

	case 1:
		s.cfg.UI.TransitionMs += dir * 50
		if s.cfg.UI.TransitionMs < 0 {
			s.cfg.UI.TransitionMs = 0
		}

	case 2:
		s.cfg.Vault.Enabled = !s.cfg.Vault.Enabled

	case 3:
		s.cfg.Vault.LockAfterMin += dir * 5
		if s.cfg.Vault.LockAfterMin < 0 {
			s.cfg.Vault.LockAfterMin = 0
		}
	}
}

// View implements tea.Model
func (s *Settings) View() string {
	var b strings.Builder

	values := []string{
		s.cfg.UI.Theme,
		fmt.Sprintf("%d", s.cfg.UI.TransitionMs),
		map[bool]string{true: "on", false: "off"}[s.cfg.Vault.Enabled],
		fmt.Sprintf("%d", s.cfg.Vault.LockAfterMin),
		"",
	}

	for i, row := range settingsRows {
		style := s.styles.MenuItem
		if i == s.cursor {
			style = s.styles.MenuItemActive
		}
		line := fmt.Sprintf("%-18s %s", row, values[i])
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if s.errMsg != "" {
		b.WriteString("\n" + s.styles.FieldError.Render(s.errMsg) + "\n")
	}

	b.WriteString("\n" + s.styles.Footer.Render("↑↓: Move • ←→: Change • Ctrl+S: Save • Esc: Close"))
	return b.String()
}
