package tui

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Color palette, replaced by applyTheme.
var (
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorMuted     lipgloss.Color
	colorSuccess   lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorFg        lipgloss.Color
	colorSubtle    lipgloss.Color
	colorHighlight lipgloss.Color
)

// Styles
var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	alertPanelStyle   lipgloss.Style
	titleStyle        lipgloss.Style
	subtitleStyle     lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
	flaggedStyle      lipgloss.Style
	thumbStyle        lipgloss.Style
	activeThumbStyle  lipgloss.Style
)

func init() {
	applyTheme("mocha")
}

// applyTheme rebuilds the palette from a catppuccin flavor. Unknown names use mocha.
func applyTheme(name string) {
	f := catppuccin.Mocha
	switch name {
	case "latte":
		f = catppuccin.Latte
	case "frappe":
		f = catppuccin.Frappe
	case "macchiato":
		f = catppuccin.Macchiato
	}

	colorPrimary = lipgloss.Color(f.Mauve().Hex)
	colorSecondary = lipgloss.Color(f.Teal().Hex)
	colorAccent = lipgloss.Color(f.Peach().Hex)
	colorMuted = lipgloss.Color(f.Overlay1().Hex)
	colorSuccess = lipgloss.Color(f.Green().Hex)
	colorWarning = lipgloss.Color(f.Yellow().Hex)
	colorError = lipgloss.Color(f.Red().Hex)
	colorFg = lipgloss.Color(f.Text().Hex)
	colorSubtle = lipgloss.Color(f.Surface1().Hex)
	colorHighlight = lipgloss.Color(f.Blue().Hex)

	buildStyles()
}

func buildStyles() {
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	alertPanelStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(colorError).
		Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorFg)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorMuted)

	accentStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	successStyle = lipgloss.NewStyle().
		Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
		Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
		Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
		Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	normalItemStyle = lipgloss.NewStyle().
		Foreground(colorFg)

	flaggedStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	// Evidence thumbnails
	thumbStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(0, 1)

	activeThumbStyle = thumbStyle.
		BorderForeground(colorPrimary).
		Bold(true)
}
