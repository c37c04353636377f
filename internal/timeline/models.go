package timeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedSession is returned when a payload lacks the required top-level shape.
var ErrMalformedSession = errors.New("malformed session payload")

const (
	UnknownWindow = "Unknown Window"
	UnknownTime   = "Unknown time"
)

// Session is one continuous work-tracking period as served by the backend.
type Session struct {
	ID           int64       `json:"id"`
	StartedAt    time.Time   `json:"started_at"`
	EndedAt      *time.Time  `json:"ended_at"`
	TotalSeconds int64       `json:"total_seconds"`
	TimeBlocks   []TimeBlock `json:"time_blocks"`
}

type TimeBlock struct {
	ID          int64      `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	IdleSeconds *int64     `json:"idle_seconds,omitempty"`
	IdleRatio   *float64   `json:"idle_ratio,omitempty"`
	IsFlagged   bool       `json:"is_flagged,omitempty"`
	Windows     []Window   `json:"windows,omitempty"`
}

type Window struct {
	ID          int64        `json:"id"`
	WindowTitle string       `json:"window_title,omitempty"`
	Screenshots []Screenshot `json:"screenshots,omitempty"`
}

type Screenshot struct {
	ID            int64      `json:"id"`
	Image         string     `json:"image"`
	TakenAtClient *time.Time `json:"taken_at_client,omitempty"`
	IsFlagged     bool       `json:"is_flagged,omitempty"`
}

// Ended reports whether the session has an end timestamp.
func (s *Session) Ended() bool { return s.EndedAt != nil }

func (s *Session) HasDisputedBlocks() bool {
	for _, b := range s.TimeBlocks {
		if b.IsFlagged {
			return true
		}
	}
	return false
}

// Block returns the block with the given id, or nil.
func (s *Session) Block(id int64) *TimeBlock {
	for i := range s.TimeBlocks {
		if s.TimeBlocks[i].ID == id {
			return &s.TimeBlocks[i]
		}
	}
	return nil
}

// Validate checks the fields the normalizer cannot substitute a fallback for.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: empty document", ErrMalformedSession)
	}
	if s.TimeBlocks == nil {
		return fmt.Errorf("%w: missing time_blocks", ErrMalformedSession)
	}
	if s.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing started_at", ErrMalformedSession)
	}
	for i, b := range s.TimeBlocks {
		if b.ID == 0 {
			return fmt.Errorf("%w: time_blocks[%d] missing id", ErrMalformedSession, i)
		}
		if b.StartedAt.IsZero() {
			return fmt.Errorf("%w: time block %d missing started_at", ErrMalformedSession, b.ID)
		}
		for j, w := range b.Windows {
			if w.ID == 0 {
				return fmt.Errorf("%w: time block %d windows[%d] missing id", ErrMalformedSession, b.ID, j)
			}
			for k, sc := range w.Screenshots {
				if sc.ID == 0 {
					return fmt.Errorf("%w: window %d screenshots[%d] missing id", ErrMalformedSession, w.ID, k)
				}
				if sc.Image == "" {
					return fmt.Errorf("%w: screenshot %d missing image", ErrMalformedSession, sc.ID)
				}
			}
		}
	}
	return nil
}

// Title returns the window title or the display fallback.
func (w Window) Title() string {
	if w.WindowTitle == "" {
		return UnknownWindow
	}
	return w.WindowTitle
}
