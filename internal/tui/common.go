package tui

import (
	"github.com/sadopc/trackview/internal/store"
	"github.com/sadopc/trackview/internal/timeline"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimeline viewState = iota
	viewReports
	viewSettings
)

var viewNames = []string{"Timeline", "Reports", "Settings"}

// --- Messages ---

// sessionLoadedMsg and sessionErrorMsg carry the load generation so a late
// response from a superseded load is dropped.
type sessionLoadedMsg struct {
	gen     int
	session *timeline.Session
	history map[int64]store.Explanation
}

type sessionErrorMsg struct {
	gen int
	err error
}

type explanationDoneMsg struct {
	blockID int64
	text    string
	err     error
}

type downloadDoneMsg struct {
	path string
	size int64
}

type downloadFailedMsg struct {
	url string
	err error
}

type fileChangedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type settingsSavedMsg struct {
	settings store.ViewerSettings
}

// --- Helpers ---

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
