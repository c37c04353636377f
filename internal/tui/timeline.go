package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/trackview/internal/api"
	"github.com/sadopc/trackview/internal/store"
	"github.com/sadopc/trackview/internal/timeline"
	"github.com/sadopc/trackview/internal/viewer"
)

// sessionData is everything derived from one loaded session. It is rebuilt
// on every load and never patched in place.
type sessionData struct {
	session *timeline.Session
	tl      timeline.Timeline
	blocks  []timeline.BlockTimeMetrics
	summary timeline.SessionMetrics
	history map[int64]store.Explanation
}

func newSessionData(s *timeline.Session, history map[int64]store.Explanation, calc timeline.Calculator) *sessionData {
	blocks := calc.Blocks(s)
	return &sessionData{
		session: s,
		tl:      timeline.Normalize(s),
		blocks:  blocks,
		summary: calc.Session(s, blocks),
		history: history,
	}
}

func (d *sessionData) historyLabels() map[int64]string {
	out := make(map[int64]string, len(d.history))
	for id, e := range d.history {
		out[id] = string(e.Status)
	}
	return out
}

func (d *sessionData) flaggedBlocks() int {
	n := 0
	for _, b := range d.session.TimeBlocks {
		if b.IsFlagged {
			n++
		}
	}
	return n
}

type openEvidenceMsg struct {
	index int
}

type openExplainMsg struct {
	blockID int64
}

type timelineModel struct {
	width  int
	height int

	data   *sessionData
	cursor int
}

// timelineRow is one line of the block list. shot is the global screenshot
// index, or -1 for the block header.
type timelineRow struct {
	block int
	shot  int
}

func newTimelineModel() timelineModel {
	return timelineModel{}
}

func (m *timelineModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m timelineModel) setData(d *sessionData) timelineModel {
	m.data = d
	return m
}

func (m timelineModel) rows(expanded viewer.Expanded) []timelineRow {
	if m.data == nil {
		return nil
	}
	var rows []timelineRow
	for i, b := range m.data.session.TimeBlocks {
		rows = append(rows, timelineRow{block: i, shot: -1})
		if !expanded.Has(b.ID) {
			continue
		}
		for _, f := range m.data.tl.ForBlock(b.ID) {
			rows = append(rows, timelineRow{block: i, shot: f.GlobalIndex})
		}
	}
	return rows
}

func (m timelineModel) clampCursor(n int) int {
	if m.cursor >= n {
		return max(n-1, 0)
	}
	return m.cursor
}

func (m timelineModel) update(msg tea.Msg, k keyMap, expanded viewer.Expanded) (timelineModel, viewer.Expanded, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || m.data == nil {
		return m, expanded, nil
	}
	rows := m.rows(expanded)
	if len(rows) == 0 {
		return m, expanded, nil
	}
	m.cursor = m.clampCursor(len(rows))
	row := rows[m.cursor]
	block := m.data.session.TimeBlocks[row.block]

	switch {
	case key.Matches(km, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, k.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(km, k.Enter):
		if row.shot >= 0 {
			index := row.shot
			return m, expanded, func() tea.Msg { return openEvidenceMsg{index: index} }
		}
		expanded = expanded.Toggle(block.ID)
	case key.Matches(km, k.Expand):
		expanded = expanded.Toggle(block.ID)
		if row.shot >= 0 {
			// collapsing from a screenshot row lands on its block
			for i, r := range rows {
				if r.block == row.block && r.shot < 0 {
					m.cursor = i
					break
				}
			}
		}
	case key.Matches(km, k.Explain):
		id := block.ID
		return m, expanded, func() tea.Msg { return openExplainMsg{blockID: id} }
	}
	return m, expanded, nil
}

func (m timelineModel) view(loading bool, loadErr error, expanded viewer.Expanded) string {
	w := m.width - 4

	if loadErr != nil {
		rows := []string{
			errorStyle.Bold(true).Render("Could not load the session"),
			"",
			normalItemStyle.Render(api.UserMessage(loadErr, "failed to load")),
			"",
			mutedStyle.Render("r: retry"),
		}
		return alertPanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}
	if m.data == nil {
		msg := "No session loaded"
		if loading {
			msg = "Loading session..."
		}
		return panelStyle.Width(w).Render(mutedStyle.Render(msg))
	}

	header := m.renderSummary()
	list := m.renderBlocks(expanded, m.height-lipgloss.Height(header)-5)

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", list),
	)
}

func (m timelineModel) renderSummary() string {
	s := m.data.session
	sum := m.data.summary

	state := successStyle.Render("ended")
	if !s.Ended() {
		state = warningStyle.Render("in progress")
	}
	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render(fmt.Sprintf("Session %d", s.ID)), "  ",
		mutedStyle.Render(timeline.FormatTimestamp(s.StartedAt)+"  "+timeline.FormatRange(s.StartedAt, s.EndedAt)), "  ",
		state,
	)

	prodStyle := successStyle
	switch {
	case sum.Productivity < 50:
		prodStyle = errorStyle
	case sum.Productivity < 75:
		prodStyle = warningStyle
	}
	metrics := fmt.Sprintf("Total %s   Worked %s   Idle %s   Productivity %s",
		highlightStyle.Render(timeline.FormatDuration(s.TotalSeconds)),
		successStyle.Render(timeline.FormatDuration(sum.WorkedSeconds)),
		warningStyle.Render(timeline.FormatDuration(sum.IdleSeconds)),
		prodStyle.Render(fmt.Sprintf("%d%%", sum.Productivity)),
	)
	counts := mutedStyle.Render(fmt.Sprintf("%d blocks  %d screenshots",
		m.data.tl.BlockCount, m.data.tl.ScreenshotCount))

	lines := []string{title, metrics, counts}
	if n := m.data.flaggedBlocks(); n > 0 {
		lines = append(lines, flaggedStyle.Render(fmt.Sprintf("⚑ %d flagged block(s) disputed, press x on a block to explain", n)))
	}
	if sum.Diverges {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("Blocks add up to %s but the session reports %s",
			timeline.FormatDuration(sum.BlockTotalSeconds), timeline.FormatDuration(s.TotalSeconds))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m timelineModel) renderBlocks(expanded viewer.Expanded, visible int) string {
	rows := m.rows(expanded)
	if len(rows) == 0 {
		return mutedStyle.Render("  No time blocks recorded")
	}
	cursor := m.clampCursor(len(rows))
	if visible < 1 {
		visible = 1
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := min(start+visible, len(rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := rows[i]
		var line string
		if r.shot < 0 {
			line = m.renderBlockRow(r.block, expanded)
		} else {
			line = m.renderShotRow(r.shot)
		}
		if i == cursor {
			line = selectedItemStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m timelineModel) renderBlockRow(i int, expanded viewer.Expanded) string {
	b := m.data.session.TimeBlocks[i]
	bm := m.data.blocks[i]

	arrow := "▸"
	if expanded.Has(b.ID) {
		arrow = "▾"
	}
	shots := 0
	for _, w := range b.Windows {
		shots += len(w.Screenshots)
	}

	parts := []string{
		fmt.Sprintf("%s #%-3d %s", arrow, i+1, timeline.FormatRange(b.StartedAt, b.EndedAt)),
		successStyle.Render(fmt.Sprintf("%9s worked", timeline.FormatDuration(bm.Worked))),
		warningStyle.Render(fmt.Sprintf("%9s idle", timeline.FormatDuration(bm.Idle))),
		fmt.Sprintf("%3d%%", bm.Productivity),
		mutedStyle.Render(fmt.Sprintf("%d shots", shots)),
	}
	if b.IsFlagged {
		parts = append(parts, flaggedStyle.Render("⚑ flagged"))
	}
	if e, ok := m.data.history[b.ID]; ok {
		switch e.Status {
		case store.ExplanationSubmitted:
			parts = append(parts, successStyle.Render("✓ explained"))
		case store.ExplanationFailed:
			parts = append(parts, errorStyle.Render("✗ explanation failed"))
		}
	}
	return strings.Join(parts, "  ")
}

func (m timelineModel) renderShotRow(index int) string {
	f, ok := m.data.tl.At(index)
	if !ok {
		return ""
	}
	title := truncate(f.WindowTitle, max(m.width-40, 10))
	line := fmt.Sprintf("    └ %-16s %s", f.TakenLabel(), normalItemStyle.Render(title))
	if f.IsFlagged {
		line += "  " + flaggedStyle.Render("⚑")
	}
	return line
}
