// Package dialogs holds the overlay components of the application. Each
// dialog renders its own content and exposes a Definition that the app
// registers with the orchestrator; lifecycle (visibility, stacking, Escape)
// is owned entirely by the orchestrator.
package dialogs

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/overlay"
)

// Dialog is a modal or drawer component managed by the orchestrator
type Dialog interface {
	tea.Model
	ID() string
	Title() string
	Size() (width, height int)
	Definition() overlay.Definition
}

// RequestOpenMsg asks the app to open an overlay through the orchestrator
type RequestOpenMsg struct {
	ID   string
	Args overlay.Args
}

// RequestCloseMsg asks the app to close an overlay through the orchestrator
type RequestCloseMsg struct {
	ID string
}

// SelectionMsg is sent when a dialog reaches a terminal choice
type SelectionMsg struct {
	ID    string
	Key   string
	Value any
}

func openCmd(id string, args overlay.Args) tea.Cmd {
	return func() tea.Msg {
		return RequestOpenMsg{ID: id, Args: args}
	}
}

func closeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return RequestCloseMsg{ID: id}
	}
}
