package dialogs

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sshdeck/sshdeck/internal/domain"
	"github.com/sshdeck/sshdeck/internal/overlay"
	"github.com/sshdeck/sshdeck/internal/ui/styles"
)

// ProfileFormID is the overlay id of the profile editor.
const ProfileFormID = "profile-form"

// ProfileSavedMsg is emitted after a profile has been written to the store
type ProfileSavedMsg struct {
	Profile domain.Profile
}

// ProfileForm is the create/edit dialog for SSH profiles. The close guard
// vetoes the first close while the form has unsaved edits; a second close
// within the same session discards them.
type ProfileForm struct {
	name    textinput.Model
	host    textinput.Model
	port    textinput.Model
	user    textinput.Model
	keyPath textinput.Model
	tags    textinput.Model

	authType   domain.AuthType
	focusIndex int
	editingID  string
	dirty      bool
	discard    bool
	errMsg     string

	orch   *overlay.Orchestrator
	save   func(domain.Profile) (domain.Profile, error)
	styles *styles.Styles
}

const (
	focusName = iota
	focusHost
	focusPort
	focusUser
	focusAuth
	focusKeyPath
	focusTags
	focusSave
	profileFieldCount
)

// NewProfileForm creates the profile editor. save persists the profile and
// returns it with server-assigned fields filled in.
func NewProfileForm(s *styles.Styles, orch *overlay.Orchestrator, save func(domain.Profile) (domain.Profile, error)) *ProfileForm {
	mk := func(placeholder string, width int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 200
		ti.Width = width
		return ti
	}

	f := &ProfileForm{
		name:     mk("production web", 40),
		host:     mk("host or IP", 40),
		port:     mk("22", 6),
		user:     mk("root", 24),
		keyPath:  mk("~/.ssh/id_ed25519", 40),
		tags:     mk("prod, web", 40),
		authType: domain.AuthKey,
		orch:     orch,
		save:     save,
		styles:   s,
	}
	f.name.Focus()
	return f
}

// ID returns the overlay id
func (f *ProfileForm) ID() string { return ProfileFormID }

// Title returns the dialog title
func (f *ProfileForm) Title() string {
	if f.editingID != "" {
		return "Edit Profile"
	}
	return "New Profile"
}

// Size returns the dialog dimensions
func (f *ProfileForm) Size() (width, height int) { return 64, 20 }

// Definition describes the dialog to the orchestrator
func (f *ProfileForm) Definition() overlay.Definition {
	return overlay.Definition{
		ID:          ProfileFormID,
		Kind:        overlay.KindModal,
		DefaultArgs: overlay.Args{"mode": "create"},
		Opened:      f.load,
		BeforeClose: func(ctx context.Context) (bool, error) {
			if f.dirty && !f.discard {
				f.discard = true
				f.errMsg = "unsaved changes, close again to discard"
				return false, nil
			}
			return true, nil
		},
		Closed: f.reset,
	}
}

// load populates the form from the overlay args. The commands palette feeds
// a command into the form through the "command" prop before opening it.
func (f *ProfileForm) load() {
	st, ok := f.orch.StateOf(ProfileFormID)
	if !ok {
		return
	}

	if p, ok := st.Args["profile"].(domain.Profile); ok {
		f.editingID = p.ID
		f.name.SetValue(p.Name)
		f.host.SetValue(p.Host)
		f.port.SetValue(strconv.Itoa(p.Port))
		f.user.SetValue(p.User)
		f.keyPath.SetValue(p.KeyPath)
		f.tags.SetValue(strings.Join(p.Tags, ", "))
		f.authType = p.AuthType
	}

	if cmd, ok := f.orch.Prop(ProfileFormID, "command", nil, "").(string); ok && cmd != "" {
		f.prefillFromCommand(cmd)
	}
}

// prefillFromCommand seeds the form from a saved ssh invocation, e.g.
// "ssh -p 2222 deploy@db1.example.com".
func (f *ProfileForm) prefillFromCommand(cmd string) {
	fields := strings.Fields(cmd)
	for i := 0; i < len(fields); i++ {
		switch {
		case fields[i] == "ssh":
		case fields[i] == "-p" && i+1 < len(fields):
			f.port.SetValue(fields[i+1])
			i++
		case fields[i] == "-i" && i+1 < len(fields):
			f.keyPath.SetValue(fields[i+1])
			i++
		case strings.Contains(fields[i], "@"):
			user, host, _ := strings.Cut(fields[i], "@")
			f.user.SetValue(user)
			f.host.SetValue(host)
			if f.name.Value() == "" {
				f.name.SetValue(host)
			}
		}
	}
}

func (f *ProfileForm) reset() {
	f.name.SetValue("")
	f.host.SetValue("")
	f.port.SetValue("")
	f.user.SetValue("")
	f.keyPath.SetValue("")
	f.tags.SetValue("")
	f.authType = domain.AuthKey
	f.editingID = ""
	f.focusIndex = focusName
	f.dirty = false
	f.discard = false
	f.errMsg = ""
	f.applyFocus()
}

// Init implements tea.Model
func (f *ProfileForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (f *ProfileForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			return f, f.submit()

		case "tab", "shift+tab":
			if msg.String() == "tab" {
				f.focusIndex = (f.focusIndex + 1) % profileFieldCount
			} else {
				f.focusIndex = (f.focusIndex - 1 + profileFieldCount) % profileFieldCount
			}
			f.applyFocus()
			return f, nil

		case "enter":
			if f.focusIndex == focusSave {
				return f, f.submit()
			}
		}

		if f.focusIndex == focusAuth {
			switch msg.String() {
			case "p", "P":
				f.setAuth(domain.AuthPassword)
				return f, nil
			case "k", "K":
				f.setAuth(domain.AuthKey)
				return f, nil
			case "a", "A":
				f.setAuth(domain.AuthAgent)
				return f, nil
			}
		}
	}

	ti := f.focusedInput()
	if ti == nil {
		return f, nil
	}

	prev := ti.Value()
	var cmd tea.Cmd
	*ti, cmd = ti.Update(msg)
	if ti.Value() != prev {
		f.dirty = true
		f.discard = false
	}
	return f, cmd
}

func (f *ProfileForm) setAuth(a domain.AuthType) {
	if f.authType != a {
		f.dirty = true
		f.discard = false
	}
	f.authType = a
}

func (f *ProfileForm) focusedInput() *textinput.Model {
	switch f.focusIndex {
	case focusName:
		return &f.name
	case focusHost:
		return &f.host
	case focusPort:
		return &f.port
	case focusUser:
		return &f.user
	case focusKeyPath:
		return &f.keyPath
	case focusTags:
		return &f.tags
	}
	return nil
}

func (f *ProfileForm) applyFocus() {
	inputs := []*textinput.Model{&f.name, &f.host, &f.port, &f.user, &f.keyPath, &f.tags}
	for _, ti := range inputs {
		ti.Blur()
	}
	if ti := f.focusedInput(); ti != nil {
		ti.Focus()
	}
}

// submit validates and persists the profile
func (f *ProfileForm) submit() tea.Cmd {
	name := strings.TrimSpace(f.name.Value())
	host := strings.TrimSpace(f.host.Value())
	if name == "" || host == "" {
		f.errMsg = "name and host are required"
		return nil
	}

	port := 22
	if v := strings.TrimSpace(f.port.Value()); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			f.errMsg = "port must be 1-65535"
			return nil
		}
		port = n
	}

	var tags []string
	for _, t := range strings.Split(f.tags.Value(), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	p := domain.Profile{
		ID:       f.editingID,
		Name:     name,
		Host:     host,
		Port:     port,
		User:     strings.TrimSpace(f.user.Value()),
		AuthType: f.authType,
		KeyPath:  strings.TrimSpace(f.keyPath.Value()),
		Tags:     tags,
	}

	saved, err := f.save(p)
	if err != nil {
		f.errMsg = err.Error()
		return nil
	}

	f.dirty = false
	return tea.Batch(
		func() tea.Msg { return ProfileSavedMsg{Profile: saved} },
		closeCmd(ProfileFormID),
	)
}

// View implements tea.Model
func (f *ProfileForm) View() string {
	var b strings.Builder

	label := func(idx int, text string) string {
		style := f.styles.FieldLabel
		if f.focusIndex == idx {
			style = f.styles.MenuItemActive
		}
		return style.Render(text)
	}

	b.WriteString(label(focusName, "Name:") + "     " + f.name.View() + "\n")
	b.WriteString(label(focusHost, "Host:") + "     " + f.host.View() + "\n")
	b.WriteString(label(focusPort, "Port:") + "     " + f.port.View() + "\n")
	b.WriteString(label(focusUser, "User:") + "     " + f.user.View() + "\n")
	b.WriteString(label(focusAuth, "Auth:") + "     " + f.renderAuthSelector() + "\n")
	b.WriteString(label(focusKeyPath, "Key path:") + " " + f.keyPath.View() + "\n")
	b.WriteString(label(focusTags, "Tags:") + "     " + f.tags.View() + "\n\n")

	b.WriteString(f.styles.Separator.Render(strings.Repeat("─", 56)))
	b.WriteString("\n\n")

	saveStyle := f.styles.MenuItem
	if f.focusIndex == focusSave {
		saveStyle = f.styles.MenuItemActive
	}
	b.WriteString(saveStyle.Render("[ Save Profile ]"))
	b.WriteString("\n")

	if f.errMsg != "" {
		b.WriteString("\n" + f.styles.FieldError.Render(f.errMsg) + "\n")
	}

	b.WriteString("\n" + f.styles.Footer.Render("Tab: Switch fields • Ctrl+S: Save • Esc: Close"))
	return b.String()
}

func (f *ProfileForm) renderAuthSelector() string {
	auths := []struct {
		key  string
		auth domain.AuthType
	}{
		{"P", domain.AuthPassword},
		{"K", domain.AuthKey},
		{"A", domain.AuthAgent},
	}

	var parts []string
	for _, a := range auths {
		style := f.styles.MenuItem
		indicator := " "
		if a.auth == f.authType {
			style = f.styles.MenuItemActive
			indicator = "●"
		}
		parts = append(parts, style.Render(fmt.Sprintf("[%s%s] %s", indicator, a.key, a.auth)))
	}
	return strings.Join(parts, " ")
}
