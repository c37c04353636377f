package export

import (
	"strings"
	"time"

	"github.com/sadopc/trackview/internal/timeline"
)

// Report is a session with its derived metrics, ready to be written out.
type Report struct {
	Session     *timeline.Session
	Blocks      []timeline.BlockTimeMetrics
	Summary     timeline.SessionMetrics
	GeneratedAt time.Time

	// Explanations maps block id to the latest local explanation status.
	Explanations map[int64]string
}

func Build(s *timeline.Session, calc timeline.Calculator) Report {
	blocks := calc.Blocks(s)
	generated := time.Now().UTC()
	if calc.Clock != nil {
		generated = calc.Clock.Now()
	}
	return Report{
		Session:     s,
		Blocks:      blocks,
		Summary:     calc.Session(s, blocks),
		GeneratedAt: generated,
	}
}

func windowTitles(b timeline.TimeBlock) string {
	titles := make([]string, 0, len(b.Windows))
	for _, w := range b.Windows {
		titles = append(titles, w.Title())
	}
	return strings.Join(titles, "; ")
}

func screenshotCount(b timeline.TimeBlock) int {
	n := 0
	for _, w := range b.Windows {
		n += len(w.Screenshots)
	}
	return n
}

func formatEnd(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
