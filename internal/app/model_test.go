package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshdeck/sshdeck/internal/config"
	"github.com/sshdeck/sshdeck/internal/domain"
	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/store"
	"github.com/sshdeck/sshdeck/internal/ui/dialogs"
	"github.com/sshdeck/sshdeck/internal/ui/toast"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "sshdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	vault, err := NewVault(filepath.Join(dir, "master"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := overlay.New(overlay.WithLogger(logger))

	cfg := config.Config{}
	cfg.UI.Theme = "macchiato"

	m, err := New(cfg, logger, st, vault, orch)
	require.NoError(t, err)
	m.width = 100
	m.height = 40
	return m
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func TestNew_RegistersAllDialogs(t *testing.T) {
	m := newTestModel(t)

	for _, id := range []string{
		dialogs.UnlockID,
		dialogs.ProfileFormID,
		dialogs.SettingsID,
		dialogs.MasterPasswordID,
		dialogs.ResetConfirmID,
		dialogs.CommandsID,
		dialogs.BackupID,
	} {
		_, ok := m.orch.DefinitionOf(id)
		assert.True(t, ok, "dialog %s should be registered", id)
	}
}

func TestNew_InstallsRouterOnce(t *testing.T) {
	m := newTestModel(t)
	assert.Error(t, m.router.Install(), "Second install should fail")
}

func TestUpdate_WindowSize(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	got := updated.(Model)
	assert.Equal(t, 120, got.width)
	assert.Equal(t, 50, got.height)
}

func TestHandleKey_OpensSettingsDrawer(t *testing.T) {
	m := sized(newTestModel(t))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.NotNil(t, cmd)

	msg := cmd()
	opened, ok := msg.(overlayOpenedMsg)
	require.True(t, ok)
	require.NoError(t, opened.err)
	assert.True(t, m.orch.IsVisible(dialogs.SettingsID))
}

func TestHandleKey_EscapeClosesActiveOverlay(t *testing.T) {
	m := sized(newTestModel(t))
	require.NoError(t, m.orch.Open(context.Background(), dialogs.SettingsID, nil))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	msg := cmd()
	closed, ok := msg.(overlay.EscapeClosedMsg)
	require.True(t, ok)
	assert.Equal(t, dialogs.SettingsID, closed.ID)
	assert.False(t, m.orch.IsVisible(dialogs.SettingsID))
}

func TestHandleKey_ListKeysIgnoredWhileDialogOpen(t *testing.T) {
	m := sized(newTestModel(t))
	require.NoError(t, m.orch.Open(context.Background(), dialogs.CommandsID, nil))

	// "q" must go to the palette filter, not quit the program
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		assert.NotEqual(t, tea.Quit(), cmd(), "q should not quit while a dialog is open")
	}
}

func TestUpdate_BackupVetoSurfacesAsToast(t *testing.T) {
	m := sized(newTestModel(t))

	// Empty store, the backup open guard vetoes
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	require.NotNil(t, cmd)

	updated, _ := m.Update(cmd())
	got := updated.(Model)
	require.Len(t, got.toasts, 1)
	assert.Equal(t, toast.Warning, got.toasts[0].Level)
	assert.False(t, got.orch.IsVisible(dialogs.BackupID))
}

func TestUpdate_ProfileSavedReloadsList(t *testing.T) {
	m := sized(newTestModel(t))

	saved, err := m.st.SaveProfile(domain.Profile{Name: "web", Host: "web.example.com", Port: 22})
	require.NoError(t, err)

	updated, cmd := m.Update(dialogs.ProfileSavedMsg{Profile: saved})
	require.NotNil(t, cmd)

	updated, _ = updated.Update(cmd())
	got := updated.(Model)
	require.Len(t, got.profiles, 1)
	assert.Equal(t, "web", got.profiles[0].Name)
	require.NotEmpty(t, got.toasts)
	assert.Equal(t, toast.Success, got.toasts[0].Level)
}

func TestUpdate_TickPrunesToasts(t *testing.T) {
	m := sized(newTestModel(t))
	m.toasts = []toast.Toast{
		{Level: toast.Info, Message: "stale", Expires: time.Now().Add(-time.Second)},
		{Level: toast.Info, Message: "fresh", Expires: time.Now().Add(time.Minute)},
	}

	updated, _ := m.Update(tickMsg(time.Now()))
	got := updated.(Model)
	require.Len(t, got.toasts, 1)
	assert.Equal(t, "fresh", got.toasts[0].Message)
}

func TestView_ShowsProfilesAndOverlay(t *testing.T) {
	m := sized(newTestModel(t))
	m.profiles = []domain.Profile{
		{Name: "web", Host: "web.example.com", Port: 22, AuthType: domain.AuthKey},
	}

	view := m.View()
	assert.Contains(t, view, "web.example.com:22")

	require.NoError(t, m.orch.Open(context.Background(), dialogs.SettingsID, nil))
	view = m.View()
	assert.Contains(t, view, "Settings")
}

func TestView_BeforeFirstResize(t *testing.T) {
	m := newTestModel(t)
	m.width = 0
	m.height = 0
	assert.Equal(t, "Loading...", m.View())
}
