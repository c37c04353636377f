package store

import "time"

// CachedSession is a session payload as last fetched from the backend.
type CachedSession struct {
	Key        string
	SessionID  int64
	BlockCount int
	Flagged    bool
	FetchedAt  time.Time
}

type ExplanationStatus string

const (
	ExplanationSubmitted ExplanationStatus = "submitted"
	ExplanationFailed    ExplanationStatus = "failed"
)

// Explanation is one local record of a dispute explanation attempt.
type Explanation struct {
	ID         int64
	SessionKey string
	BlockID    int64
	Text       string
	Status     ExplanationStatus
	Error      string
	CreatedAt  time.Time
}

type Setting struct {
	Key   string
	Value string
}

// ViewerSettings are the evidence viewer preferences edited from the TUI.
type ViewerSettings struct {
	ThumbnailWindow   int
	AutoExpandFlagged bool
	DownloadDir       string
}
