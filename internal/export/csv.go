package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/trackview/internal/timeline"
)

var csvHeader = []string{
	"Block ID", "Start", "End", "Flagged", "Windows", "Screenshots",
	"Worked (s)", "Idle (s)", "Total (s)", "Worked", "Productivity (%)", "Explanation",
}

// ToCSV writes one row per time block.
func ToCSV(r Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, r)
}

func WriteCSV(out io.Writer, r Report) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for i, b := range r.Session.TimeBlocks {
		m := r.Blocks[i]
		row := []string{
			strconv.FormatInt(b.ID, 10),
			b.StartedAt.Local().Format(time.RFC3339),
			formatEnd(b.EndedAt),
			strconv.FormatBool(b.IsFlagged),
			windowTitles(b),
			strconv.Itoa(screenshotCount(b)),
			strconv.FormatInt(m.Worked, 10),
			strconv.FormatInt(m.Idle, 10),
			strconv.FormatInt(m.Total, 10),
			timeline.FormatClock(m.Worked),
			strconv.Itoa(m.Productivity),
			r.Explanations[b.ID],
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
