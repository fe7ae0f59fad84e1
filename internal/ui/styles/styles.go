package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds all the UI styles
type Styles struct {
	// Profile list
	List           lipgloss.Style
	ListHeader     lipgloss.Style
	Row            lipgloss.Style
	RowActive      lipgloss.Style
	ProfileName    lipgloss.Style
	ProfileAddress lipgloss.Style
	TagBadge       lipgloss.Style

	// Status bar
	StatusBar  lipgloss.Style
	StatusMode lipgloss.Style
	StatusHint lipgloss.Style

	// Overlays
	Overlay       lipgloss.Style
	OverlayDrawer lipgloss.Style
	OverlayTitle  lipgloss.Style
	Dimmed        lipgloss.Style

	// Menus and fields
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuKey          lipgloss.Style
	FieldLabel       lipgloss.Style
	FieldError       lipgloss.Style
	Footer           lipgloss.Style
	Separator        lipgloss.Style

	// Toasts
	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style
}

// New creates a new Styles instance with the Catppuccin Macchiato theme
func New() *Styles {
	return &Styles{
		List: lipgloss.NewStyle().
			Padding(0, 1),

		ListHeader: lipgloss.NewStyle().
			Foreground(Subtext0).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1),

		Row: lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1),

		RowActive: lipgloss.NewStyle().
			Foreground(Text).
			Background(Surface0).
			Padding(0, 1),

		ProfileName: lipgloss.NewStyle().
			Foreground(Mauve).
			Bold(true),

		ProfileAddress: lipgloss.NewStyle().
			Foreground(Subtext0),

		TagBadge: lipgloss.NewStyle().
			Foreground(Subtext0).
			Background(Surface1).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Background(Surface0).
			Foreground(Subtext0).
			Padding(0, 1),

		StatusMode: lipgloss.NewStyle().
			Background(Blue).
			Foreground(Base).
			Bold(true).
			Padding(0, 1),

		StatusHint: lipgloss.NewStyle().
			Foreground(Overlay1),

		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Background(Base).
			Padding(1, 2),

		OverlayDrawer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(Surface2).
			Background(Base).
			Padding(1, 2),

		OverlayTitle: lipgloss.NewStyle().
			Foreground(Text).
			Bold(true).
			MarginBottom(1),

		Dimmed: lipgloss.NewStyle().
			Foreground(Overlay0),

		MenuItem: lipgloss.NewStyle().
			Foreground(Text),

		MenuItemActive: lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true),

		MenuItemDisabled: lipgloss.NewStyle().
			Foreground(Overlay0),

		MenuKey: lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true),

		FieldLabel: lipgloss.NewStyle().
			Foreground(Subtext1),

		FieldError: lipgloss.NewStyle().
			Foreground(Red),

		Footer: lipgloss.NewStyle().
			Foreground(Subtext0).
			MarginTop(1),

		Separator: lipgloss.NewStyle().
			Foreground(Surface1),

		ToastInfo: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Blue).
			Foreground(Blue).
			Padding(0, 1),

		ToastSuccess: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Foreground(Green).
			Padding(0, 1),

		ToastWarning: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Yellow).
			Foreground(Yellow).
			Padding(0, 1),

		ToastError: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Foreground(Red).
			Padding(0, 1),
	}
}

// Auth returns the badge style for a profile auth type
func (s *Styles) Auth(authType string) lipgloss.Style {
	color, ok := AuthColors[authType]
	if !ok {
		color = Overlay0
	}
	return lipgloss.NewStyle().
		Foreground(Base).
		Background(color).
		Padding(0, 1)
}
