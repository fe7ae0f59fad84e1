package toast

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// Toast is a transient notification shown in the corner of the screen.
type Toast struct {
	Level   Level
	Message string
	Expires time.Time
}

// Level indicates the severity of a toast
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

// Renderer handles rendering of toast notifications
type Renderer struct {
	styles *styles.Styles
}

// New creates a new Renderer with the given styles
func New(styles *styles.Styles) *Renderer {
	return &Renderer{
		styles: styles,
	}
}

// Render renders a stack of toasts in the bottom-right corner.
// Returns empty string if no toasts to display.
func (r *Renderer) Render(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}

	var rendered []string
	toastWidth := width / 3
	if toastWidth > 40 {
		toastWidth = 40 // Cap maximum toast width
	}

	for _, t := range toasts {
		style := r.styleForLevel(t.Level)
		rendered = append(rendered, style.Width(toastWidth).Render(t.Message))
	}

	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

// Prune drops toasts whose expiry has passed, preserving order.
func Prune(toasts []Toast, now time.Time) []Toast {
	alive := toasts[:0]
	for _, t := range toasts {
		if t.Expires.After(now) {
			alive = append(alive, t)
		}
	}
	return alive
}

func (r *Renderer) styleForLevel(level Level) lipgloss.Style {
	switch level {
	case Success:
		return r.styles.ToastSuccess
	case Warning:
		return r.styles.ToastWarning
	case Error:
		return r.styles.ToastError
	default:
		return r.styles.ToastInfo
	}
}
