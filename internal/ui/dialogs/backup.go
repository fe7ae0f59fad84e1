package dialogs

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// BackupID is the overlay id of the database backup dialog.
const BackupID = "backup"

// BackupDoneMsg is emitted after the database has been copied
type BackupDoneMsg struct {
	Path string
}

// Backup writes a snapshot of the profile database to a chosen path. Its
// open guard vetoes when there is nothing to back up.
type Backup struct {
	path   textinput.Model
	errMsg string

	count  func() (int, error)
	backup func(path string) error
	styles *styles.Styles
}

// NewBackup creates the backup dialog. count reports how many profiles are
// stored, backup copies the database to the given path.
func NewBackup(s *styles.Styles, count func() (int, error), backup func(path string) error) *Backup {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.SetValue("sshdeck-backup.db")
	ti.CharLimit = 300
	ti.Width = 44
	ti.Focus()

	return &Backup{
		path:   ti,
		count:  count,
		backup: backup,
		styles: s,
	}
}

// ID returns the overlay id
func (d *Backup) ID() string { return BackupID }

// Title returns the dialog title
func (d *Backup) Title() string { return "Backup database" }

// Size returns the dialog dimensions
func (d *Backup) Size() (width, height int) { return 54, 8 }

// Definition describes the dialog to the orchestrator
func (d *Backup) Definition() overlay.Definition {
	return overlay.Definition{
		ID:   BackupID,
		Kind: overlay.KindModal,
		BeforeOpen: func(ctx context.Context) (bool, error) {
			n, err := d.count()
			if err != nil {
				return false, err
			}
			// Nothing stored, nothing to copy
			return n > 0, nil
		},
		Closed: func() {
			d.errMsg = ""
		},
	}
}

// Init implements tea.Model
func (d *Backup) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (d *Backup) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			path := strings.TrimSpace(d.path.Value())
			if path == "" {
				d.errMsg = "path is required"
				return d, nil
			}
			if err := d.backup(path); err != nil {
				d.errMsg = fmt.Sprintf("backup failed: %v", err)
				return d, nil
			}
			return d, tea.Batch(
				func() tea.Msg { return BackupDoneMsg{Path: path} },
				closeCmd(BackupID),
			)
		}
	}

	var cmd tea.Cmd
	d.path, cmd = d.path.Update(msg)
	return d, cmd
}

// View implements tea.Model
func (d *Backup) View() string {
	out := d.styles.FieldLabel.Render("Write a copy of the profile database to:") + "\n\n"
	out += d.path.View() + "\n"
	if d.errMsg != "" {
		out += "\n" + d.styles.FieldError.Render(d.errMsg) + "\n"
	}
	out += "\n" + d.styles.Footer.Render("Enter: Backup • Esc: Close")
	return out
}
