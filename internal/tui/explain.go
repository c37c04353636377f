package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/trackview/internal/timeline"
)

const maxExplanationLength = 2000

// explainModel is the dispute explanation form for one flagged block.
type explainModel struct {
	blockID    int64
	width      int
	form       *huh.Form
	submitting bool

	// Form value as pointer (survives value copies)
	text *string
}

func newExplainModel(blockID int64, text string) explainModel {
	e := explainModel{blockID: blockID, text: &text}
	e.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(fmt.Sprintf("Why was block #%d flagged in error?", blockID)).
				Description("enter: submit  alt+enter: new line  esc: cancel").
				CharLimit(maxExplanationLength).
				Value(e.text).
				Validate(validateExplanation),
		),
	).WithShowHelp(false).WithShowErrors(true)
	return e
}

func validateExplanation(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("explanation cannot be empty")
	}
	return nil
}

func (e *explainModel) setSize(w int) {
	e.width = w
	if e.form != nil {
		e.form = e.form.WithWidth(max(w-10, 20))
	}
}

func (e explainModel) active() bool {
	return e.form != nil
}

func (e explainModel) init() tea.Cmd {
	if e.form == nil {
		return nil
	}
	return e.form.Init()
}

func (e explainModel) value() string {
	if e.text == nil {
		return ""
	}
	return strings.TrimSpace(*e.text)
}

func (e explainModel) completed() bool {
	return e.form != nil && !e.submitting && e.form.State == huh.StateCompleted
}

// retry rebuilds the form with the text that failed to submit.
func (e *explainModel) retry() tea.Cmd {
	text := ""
	if e.text != nil {
		text = *e.text
	}
	w := e.width
	*e = newExplainModel(e.blockID, text)
	e.setSize(w)
	return e.init()
}

func (e explainModel) update(msg tea.Msg) (explainModel, tea.Cmd) {
	if e.form == nil || e.submitting {
		return e, nil
	}
	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}
	return e, cmd
}

func (e explainModel) view(d *sessionData) string {
	w := e.width - 4
	title := titleStyle.Render("Explain flagged time")

	info := ""
	if d != nil {
		if b := d.session.Block(e.blockID); b != nil {
			info = mutedStyle.Render(fmt.Sprintf("Block #%d  %s  %d window(s)",
				b.ID, timeline.FormatRange(b.StartedAt, b.EndedAt), len(b.Windows)))
		}
	}

	body := ""
	switch {
	case e.submitting:
		body = warningStyle.Render("Submitting explanation...")
	case e.form != nil:
		body = e.form.View()
	}

	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, info, "", body),
	)
}
