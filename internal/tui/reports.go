package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/trackview/internal/timeline"
)

// barSlot is the horizontal space one block bar takes, including its gap.
const barSlot = 7

type reportsModel struct {
	width  int
	height int

	data   *sessionData
	offset int // first block shown in the chart

	chart barchart.Model
}

func newReportsModel() reportsModel {
	return reportsModel{
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	if r.data != nil {
		r.buildChart()
	}
}

func (r reportsModel) setData(d *sessionData) reportsModel {
	r.data = d
	if r.offset >= len(d.blocks) {
		r.offset = 0
	}
	r.buildChart()
	return r
}

// pageSize is how many blocks fit in the chart at the current width.
func (r reportsModel) pageSize() int {
	return max((r.chartWidth())/barSlot, 1)
}

func (r reportsModel) chartWidth() int {
	return max(r.width-8, 20)
}

func (r reportsModel) update(msg tea.Msg, k keyMap) (reportsModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || r.data == nil {
		return r, nil
	}
	switch {
	case key.Matches(km, k.Left):
		if r.offset > 0 {
			r.offset = max(r.offset-r.pageSize(), 0)
			r.buildChart()
		}
	case key.Matches(km, k.Right):
		if next := r.offset + r.pageSize(); next < len(r.data.blocks) {
			r.offset = next
			r.buildChart()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(r.chartWidth(), chartHeight)

	workedStyle := lipgloss.NewStyle().Foreground(colorSuccess)
	idleStyle := lipgloss.NewStyle().Foreground(colorWarning)

	end := min(r.offset+r.pageSize(), len(r.data.blocks))
	var bars []barchart.BarData
	for i := r.offset; i < end; i++ {
		m := r.data.blocks[i]
		bars = append(bars, barchart.BarData{
			Label: fmt.Sprintf("#%d", i+1),
			Values: []barchart.BarValue{
				{Name: "Worked", Value: float64(m.Worked) / 60, Style: workedStyle},
				{Name: "Idle", Value: float64(m.Idle) / 60, Style: idleStyle},
			},
		})
	}

	if len(bars) == 0 {
		bars = []barchart.BarData{{
			Label:  "",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}},
		}}
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	if r.data == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No session loaded"))
	}

	total := len(r.data.blocks)
	end := min(r.offset+r.pageSize(), total)
	rangeLabel := mutedStyle.Render(fmt.Sprintf("blocks %d-%d of %d, minutes per block", min(r.offset+1, total), end, total))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Reports"), "  ", rangeLabel)

	legend := fmt.Sprintf("  %s Worked  %s Idle",
		successStyle.Render("●"), warningStyle.Render("●"))

	nav := mutedStyle.Render("  ←/→: page")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	sum := r.data.summary
	s := r.data.session

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %12s", "Session", "Value")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 36))))

	line := func(label, value string) {
		rows = append(rows, fmt.Sprintf("  %-22s %12s", label, value))
	}
	line("Reported total", timeline.FormatClock(s.TotalSeconds))
	line("Sum of blocks", timeline.FormatClock(sum.BlockTotalSeconds))
	line("Worked", timeline.FormatClock(sum.WorkedSeconds))
	line("Idle", timeline.FormatClock(sum.IdleSeconds))
	line("Productivity", fmt.Sprintf("%d%%", sum.Productivity))
	line("Screenshots", fmt.Sprintf("%d", r.data.tl.ScreenshotCount))
	line("Flagged screenshots", fmt.Sprintf("%d", r.data.tl.FlaggedScreenshotCount()))

	if sum.Diverges {
		rows = append(rows, warningStyle.Render("  Block durations do not match the reported total"))
	}
	return strings.Join(rows, "\n")
}
