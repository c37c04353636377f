package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/trackview/internal/timeline"
	"github.com/sadopc/trackview/internal/viewer"
)

// evidenceModel renders the screenshot slideshow. Navigation state lives in
// viewer.State on the App.
type evidenceModel struct {
	width  int
	height int

	images interface{ ImageURL(path string) string }
}

func newEvidenceModel(b Backend) evidenceModel {
	m := evidenceModel{}
	if b != nil {
		m.images = b
	}
	return m
}

func (e *evidenceModel) setSize(w, h int) {
	e.width = w
	e.height = h
}

func (e evidenceModel) url(f timeline.FlatScreenshot) string {
	if e.images == nil {
		return f.Image
	}
	return e.images.ImageURL(f.Image)
}

func (e evidenceModel) view(vs viewer.State, d *sessionData) string {
	w := e.width - 4
	f, ok := d.tl.At(vs.Index)
	if !ok {
		return panelStyle.Width(w).Render(mutedStyle.Render("No screenshot"))
	}

	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Evidence"), "  ",
		mutedStyle.Render(fmt.Sprintf("%d of %d", vs.Index+1, vs.Total)),
	)

	block := d.session.Block(f.BlockID)
	blockLine := fmt.Sprintf("Block #%d", f.BlockID)
	if block != nil {
		blockLine += "  " + timeline.FormatRange(block.StartedAt, block.EndedAt)
	}
	if f.BlockFlagged {
		blockLine += "  " + flaggedStyle.Render("⚑ flagged block, x to explain")
	}

	details := []string{
		title,
		"",
		highlightStyle.Render(truncate(f.WindowTitle, max(w-4, 10))),
		mutedStyle.Render("Taken ") + f.TakenLabel(),
		blockLine,
	}
	if f.IsFlagged {
		details = append(details, flaggedStyle.Render("⚑ screenshot flagged"))
	}
	details = append(details,
		"",
		mutedStyle.Render("Image ")+accentStyle.Render(truncate(e.url(f), max(w-10, 10))),
		"",
		e.renderThumbnails(vs, d),
	)

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, details...))
}

// renderThumbnails draws the paging strip for the current thumbnail window.
func (e evidenceModel) renderThumbnails(vs viewer.State, d *sessionData) string {
	start, end := vs.Thumbnails()
	if start >= end {
		return ""
	}
	var thumbs []string
	if start > 0 {
		thumbs = append(thumbs, mutedStyle.Render(" ‹ "))
	}
	for i := start; i < end; i++ {
		f, _ := d.tl.At(i)
		label := fmt.Sprintf("%d  #%d", i-start+1, i+1)
		when := timeline.UnknownTime
		if f.TakenAtClient != nil {
			when = f.TakenAtClient.Local().Format("15:04:05")
		}
		body := lipgloss.JoinVertical(lipgloss.Left, label, when)
		style := thumbStyle
		if i == vs.Index {
			style = activeThumbStyle
		}
		if f.IsFlagged {
			style = style.BorderForeground(colorError)
		}
		thumbs = append(thumbs, style.Render(body))
	}
	if end < vs.Total {
		thumbs = append(thumbs, mutedStyle.Render(" › "))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, thumbs...)
}
