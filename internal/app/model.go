// Package app wires the orchestrator, the dialogs, and the profile store
// into the top-level Bubble Tea model.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/config"
	"github.com/sshdeck/sshdeck/internal/domain"
	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/store"
	"github.com/sshdeck/sshdeck/internal/ui/dialogs"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
	"github.com/sshdeck/sshdeck/internal/ui/toast"
)

const toastDuration = 4 * time.Second

// profilesLoadedMsg carries the result of a store read
type profilesLoadedMsg struct {
	profiles []domain.Profile
	err      error
}

// overlayOpenedMsg carries the result of an orchestrator Open call
type overlayOpenedMsg struct {
	id  string
	err error
}

// overlayClosedMsg carries the result of an orchestrator Close call
type overlayClosedMsg struct {
	id  string
	err error
}

type tickMsg time.Time

// Model is the root TEA model
type Model struct {
	cfg    config.Config
	styles *styles.Styles
	logger *slog.Logger

	st     *store.Store
	vault  *Vault
	orch   *overlay.Orchestrator
	router *overlay.Router

	dialogs map[string]dialogs.Dialog

	profiles []domain.Profile
	cursor   int

	toasts []toast.Toast

	width  int
	height int
}

// New builds the root model, registering every dialog with the orchestrator
// and installing the Escape router.
func New(cfg config.Config, logger *slog.Logger, st *store.Store, vault *Vault, orch *overlay.Orchestrator) (Model, error) {
	s := styles.New()

	m := Model{
		cfg:     cfg,
		styles:  s,
		logger:  logger,
		st:      st,
		vault:   vault,
		orch:    orch,
		router:  overlay.NewRouter(orch),
		dialogs: make(map[string]dialogs.Dialog),
	}

	ds := []dialogs.Dialog{
		dialogs.NewUnlock(s, vault.Verify),
		dialogs.NewProfileForm(s, orch, st.SaveProfile),
		dialogs.NewSettings(s, cfg, config.Save),
		dialogs.NewMasterPassword(s, vault.Change),
		dialogs.NewResetConfirm(s, m.wipeVault),
		dialogs.NewCommands(s, orch, st.SavedCommands),
		dialogs.NewBackup(s, m.profileCount, st.BackupTo),
	}
	for _, d := range ds {
		if err := orch.Register(d.Definition()); err != nil {
			return Model{}, fmt.Errorf("register %s: %w", d.ID(), err)
		}
		m.dialogs[d.ID()] = d
	}

	if err := m.router.Install(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// wipeVault deletes every profile and clears the master password
func (m Model) wipeVault() error {
	if err := m.st.DeleteAllProfiles(); err != nil {
		return err
	}
	return m.vault.Reset()
}

func (m Model) profileCount() (int, error) {
	profiles, err := m.st.Profiles()
	if err != nil {
		return 0, err
	}
	return len(profiles), nil
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadProfilesCmd(),
		tickEvery(time.Second),
	}
	if m.cfg.Vault.Enabled && m.vault.IsSet() {
		cmds = append(cmds, m.openCmd(dialogs.UnlockID, nil))
	}
	for _, d := range m.dialogs {
		if cmd := d.Init(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case overlay.StateChangedMsg:
		// Orchestrator state moved under us, redraw
		return m, nil

	case overlay.EscapeClosedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, overlay.ErrVetoed) {
			return m.withToast(toast.Error, msg.Err.Error()), nil
		}
		return m, nil

	case dialogs.RequestOpenMsg:
		return m, m.openCmd(msg.ID, msg.Args)

	case dialogs.RequestCloseMsg:
		return m, m.closeCmd(msg.ID)

	case overlayOpenedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, overlay.ErrVetoed) {
				return m.withToast(toast.Warning, "nothing to do there"), nil
			}
			return m.withToast(toast.Error, msg.err.Error()), nil
		}
		return m, nil

	case overlayClosedMsg:
		if msg.err != nil && !errors.Is(msg.err, overlay.ErrVetoed) {
			return m.withToast(toast.Error, msg.err.Error()), nil
		}
		return m, nil

	case profilesLoadedMsg:
		if msg.err != nil {
			return m.withToast(toast.Error, msg.err.Error()), nil
		}
		m.profiles = msg.profiles
		if m.cursor >= len(m.profiles) && m.cursor > 0 {
			m.cursor = len(m.profiles) - 1
		}
		return m, nil

	case dialogs.ProfileSavedMsg:
		m = m.withToast(toast.Success, "saved "+msg.Profile.Name)
		return m, m.loadProfilesCmd()

	case dialogs.SettingsSavedMsg:
		m.cfg = msg.Config
		return m.withToast(toast.Success, "settings saved"), nil

	case dialogs.MasterPasswordChangedMsg:
		return m.withToast(toast.Success, "master password updated"), nil

	case dialogs.VaultResetMsg:
		m = m.withToast(toast.Warning, "vault wiped")
		return m, m.loadProfilesCmd()

	case dialogs.CommandChosenMsg:
		return m.withToast(toast.Info, msg.Command.Command), nil

	case dialogs.BackupDoneMsg:
		return m.withToast(toast.Success, "backup written to "+msg.Path), nil

	case tickMsg:
		m.toasts = toast.Prune(m.toasts, time.Time(msg))
		return m, tickEvery(time.Second)
	}

	// Everything else goes to the active dialog (spinner ticks, blinks)
	return m.updateActiveDialog(msg)
}

// handleKey routes keys: the Escape router first, then the active dialog,
// then the main list bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd, handled := m.router.Route(msg); handled {
		return m, cmd
	}

	if active := m.orch.ActiveID(); active != "" {
		return m.updateActiveDialog(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.profiles)-1 {
			m.cursor++
		}
		return m, nil

	case "n":
		return m, m.openCmd(dialogs.ProfileFormID, nil)

	case "e", "enter":
		if p, ok := m.selectedProfile(); ok {
			return m, m.openCmd(dialogs.ProfileFormID, overlay.Args{"profile": p})
		}
		return m, nil

	case "d":
		if p, ok := m.selectedProfile(); ok {
			if err := m.st.DeleteProfile(p.ID); err != nil {
				return m.withToast(toast.Error, err.Error()), nil
			}
			m = m.withToast(toast.Info, "deleted "+p.Name)
			return m, m.loadProfilesCmd()
		}
		return m, nil

	case "s":
		return m, m.openCmd(dialogs.SettingsID, nil)

	case "c":
		return m, m.openCmd(dialogs.CommandsID, nil)

	case "b":
		return m, m.openCmd(dialogs.BackupID, nil)
	}

	return m, nil
}

// updateActiveDialog forwards msg to the topmost visible dialog
func (m Model) updateActiveDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	active := m.orch.ActiveID()
	if active == "" {
		return m, nil
	}
	d, ok := m.dialogs[active]
	if !ok {
		return m, nil
	}
	updated, cmd := d.Update(msg)
	if ud, ok := updated.(dialogs.Dialog); ok {
		m.dialogs[active] = ud
	}
	return m, cmd
}

func (m Model) selectedProfile() (domain.Profile, bool) {
	if m.cursor < 0 || m.cursor >= len(m.profiles) {
		return domain.Profile{}, false
	}
	return m.profiles[m.cursor], true
}

func (m Model) withToast(level toast.Level, text string) Model {
	m.toasts = append(m.toasts, toast.Toast{
		Level:   level,
		Message: text,
		Expires: time.Now().Add(toastDuration),
	})
	return m
}

func (m Model) loadProfilesCmd() tea.Cmd {
	return func() tea.Msg {
		profiles, err := m.st.Profiles()
		return profilesLoadedMsg{profiles: profiles, err: err}
	}
}

func (m Model) openCmd(id string, args overlay.Args) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		return overlayOpenedMsg{id: id, err: orch.Open(context.Background(), id, args)}
	}
}

func (m Model) closeCmd(id string) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		return overlayClosedMsg{id: id, err: orch.Close(context.Background(), id)}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
