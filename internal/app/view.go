package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/toast"
)

// View implements tea.Model
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	view := lipgloss.JoinVertical(lipgloss.Left, m.renderList(), m.renderStatusBar())

	// Stack visible overlays in z-order; the history tail is the topmost
	if hist := m.orch.History(); len(hist) > 0 {
		view = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, view)
		for _, id := range hist {
			d, ok := m.dialogs[id]
			if !ok || !m.orch.IsVisible(id) {
				continue
			}
			view = m.composite(view, id, d.Title(), d.View())
		}
	}

	if len(m.toasts) > 0 {
		renderer := toast.New(m.styles)
		if tv := renderer.Render(m.toasts, m.width); tv != "" {
			view = lipgloss.JoinVertical(lipgloss.Left, view, tv)
		}
	}

	return view
}

// composite draws one overlay frame over the base view. Modals are centered,
// drawers hug the right edge.
func (m Model) composite(base, id, title, content string) string {
	d := m.dialogs[id]
	w, h := d.Size()

	if title != "" {
		content = lipgloss.JoinVertical(lipgloss.Left,
			m.styles.OverlayTitle.Render(title), content)
	}

	def, _ := m.orch.DefinitionOf(id)
	frame := m.styles.Overlay
	hPos := lipgloss.Center
	if def.Kind == overlay.KindDrawer {
		frame = m.styles.OverlayDrawer
		hPos = lipgloss.Right
	}

	boxed := frame.Width(w).Height(h).Render(content)
	placed := lipgloss.Place(m.width, m.height, hPos, lipgloss.Center, boxed)

	// Simple stacking, not true transparency; fine for boxed modals
	return lipgloss.JoinVertical(lipgloss.Left, base, placed)
}

func (m Model) renderList() string {
	var b strings.Builder

	b.WriteString(m.styles.ListHeader.Render("SSH Profiles"))
	b.WriteString("\n")

	if len(m.profiles) == 0 {
		b.WriteString(m.styles.MenuItemDisabled.Render("no profiles yet, press n to add one"))
		b.WriteString("\n")
	}

	for i, p := range m.profiles {
		row := m.styles.Row
		if i == m.cursor {
			row = m.styles.RowActive
		}

		name := m.styles.ProfileName.Render(p.Name)
		addr := m.styles.ProfileAddress.Render(p.Address())
		auth := m.styles.Auth(string(p.AuthType)).Render(string(p.AuthType))

		line := fmt.Sprintf("%s  %s  %s", name, addr, auth)
		if len(p.Tags) > 0 {
			line += "  " + m.styles.TagBadge.Render(strings.Join(p.Tags, ","))
		}

		b.WriteString(row.Render(line))
		b.WriteString("\n")
	}

	return m.styles.List.Render(b.String())
}

func (m Model) renderStatusBar() string {
	left := m.styles.StatusMode.Render("sshdeck")
	hint := "n: new • e: edit • d: delete • c: commands • s: settings • b: backup • q: quit"
	if active := m.orch.ActiveID(); active != "" {
		hint = "esc: close"
		if def, ok := m.orch.DefinitionOf(active); ok && def.NonDismissable {
			hint = "locked"
		}
	}
	right := m.styles.StatusHint.Render(hint)
	return m.styles.StatusBar.Width(m.width).Render(left + "  " + right)
}
