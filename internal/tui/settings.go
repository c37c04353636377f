package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/trackview/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	thumbWindow *string
	autoExpand  *bool
	downloadDir *string
}

func newSettingsModel(s *store.Store) settingsModel {
	tw, dd := "", ""
	ae := true
	return settingsModel{
		store:       s,
		thumbWindow: &tw,
		autoExpand:  &ae,
		downloadDir: &dd,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	if s.store == nil {
		return nil
	}
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case settingsSavedMsg:
		return s, s.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, newKeyMap().Enter) && s.store != nil {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	vs, err := s.store.ViewerSettings()
	if err != nil {
		return s, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
	}
	*s.thumbWindow = strconv.Itoa(vs.ThumbnailWindow)
	*s.autoExpand = vs.AutoExpandFlagged
	*s.downloadDir = vs.DownloadDir

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Thumbnails per page").Value(s.thumbWindow).Validate(validateWindow),
			huh.NewConfirm().Title("Expand flagged blocks on load").Value(s.autoExpand),
		).Title("Evidence viewer"),
		huh.NewGroup(
			huh.NewInput().Title("Download directory").
				Description("Empty uses the configured default").
				Value(s.downloadDir),
		).Title("Downloads"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func validateWindow(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.saveSettings()
	}

	return s, cmd
}

func (s settingsModel) saveSettings() tea.Cmd {
	n, _ := strconv.Atoi(*s.thumbWindow)
	vs := store.ViewerSettings{
		ThumbnailWindow:   n,
		AutoExpandFlagged: *s.autoExpand,
		DownloadDir:       *s.downloadDir,
	}
	if err := s.store.SaveViewerSettings(vs); err != nil {
		return func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Settings error: %v", err), isError: true}
		}
	}
	return func() tea.Msg { return settingsSavedMsg{settings: vs} }
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.store == nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", mutedStyle.Render("Settings need the local database")),
		)
	}

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingThumbnailWindow:
		return v + " per page"
	case store.SettingAutoExpandFlagged:
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "yes"
			}
			return "no"
		}
	case store.SettingDownloadDir:
		if v == "" {
			return "(default)"
		}
	}
	return v
}
