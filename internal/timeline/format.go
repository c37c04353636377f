package timeline

import (
	"fmt"
	"time"
)

// FormatDuration renders seconds as "1h 05m", "12m 03s" or "45s".
func FormatDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func FormatTimestamp(t time.Time) string {
	return t.Local().Format("Jan 02 15:04:05")
}

// FormatRange renders a block interval, with "now" for an open end.
func FormatRange(start time.Time, end *time.Time) string {
	s := start.Local().Format("15:04")
	if end == nil {
		return s + " - now"
	}
	return s + " - " + end.Local().Format("15:04")
}
