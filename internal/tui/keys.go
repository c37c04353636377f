package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Expand  key.Binding
	Explain key.Binding
	Reload  key.Binding
	Export  key.Binding
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Tab     key.Binding
	Help    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Quit    key.Binding

	// Evidence viewer, enabled only while a screenshot is open
	ViewerClose    key.Binding
	ViewerPrev     key.Binding
	ViewerNext     key.Binding
	ViewerJump     key.Binding
	ViewerDownload key.Binding
	ViewerBrowser  key.Binding
}

func newKeyMap() keyMap {
	k := keyMap{
		Expand: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "expand"),
		),
		Explain: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "explain"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export"),
		),
		Tab1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "timeline"),
		),
		Tab2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "reports"),
		),
		Tab3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "settings"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),

		ViewerClose: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		ViewerPrev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "previous"),
		),
		ViewerNext: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next"),
		),
		ViewerJump: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "thumbnail"),
		),
		ViewerDownload: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download"),
		),
		ViewerBrowser: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
	}
	k.setViewerEnabled(false)
	return k
}

// setViewerEnabled scopes the viewer bindings to the viewing state; the
// regular navigation bindings are disabled while it is active.
func (k *keyMap) setViewerEnabled(on bool) {
	for _, b := range []*key.Binding{
		&k.ViewerClose, &k.ViewerPrev, &k.ViewerNext,
		&k.ViewerJump, &k.ViewerDownload, &k.ViewerBrowser,
	} {
		b.SetEnabled(on)
	}
	for _, b := range []*key.Binding{
		&k.Expand, &k.Reload, &k.Export,
		&k.Tab1, &k.Tab2, &k.Tab3, &k.Tab,
		&k.Up, &k.Down, &k.Left, &k.Right, &k.Enter, &k.Back,
	} {
		b.SetEnabled(!on)
	}
}

func (k keyMap) viewerActive() bool {
	return k.ViewerClose.Enabled()
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.viewerActive() {
		return []key.Binding{k.ViewerPrev, k.ViewerNext, k.ViewerJump, k.ViewerDownload, k.Explain, k.ViewerClose}
	}
	return []key.Binding{k.Up, k.Down, k.Enter, k.Explain, k.Reload, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	if k.viewerActive() {
		return [][]key.Binding{
			{k.ViewerPrev, k.ViewerNext, k.ViewerJump},
			{k.ViewerDownload, k.ViewerBrowser, k.Explain},
			{k.ViewerClose, k.Quit},
		}
	}
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Expand},
		{k.Explain, k.Reload, k.Export},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab},
		{k.Left, k.Right, k.Back, k.Help, k.Quit},
	}
}
