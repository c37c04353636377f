package timeline

import (
	"strconv"
	"time"
)

// FlatScreenshot is a screenshot addressed by its position in the flattened timeline.
type FlatScreenshot struct {
	Screenshot
	BlockID      int64
	BlockFlagged bool
	WindowID     int64
	WindowTitle  string
	GlobalIndex  int
}

// TakenLabel formats the client capture time or the fallback.
func (f FlatScreenshot) TakenLabel() string {
	if f.TakenAtClient == nil {
		return UnknownTime
	}
	return FormatTimestamp(*f.TakenAtClient)
}

// Timeline is the flattened view of a session. Indices are only valid for the
// session value it was built from.
type Timeline struct {
	Screenshots     []FlatScreenshot
	BlockCount      int
	ScreenshotCount int
}

// Normalize flattens blocks, windows and screenshots in the order given.
// Missing windows or screenshots contribute nothing.
func Normalize(s *Session) Timeline {
	tl := Timeline{}
	if s == nil {
		return tl
	}
	tl.BlockCount = len(s.TimeBlocks)
	for _, b := range s.TimeBlocks {
		for _, w := range b.Windows {
			title := w.Title()
			for _, sc := range w.Screenshots {
				tl.Screenshots = append(tl.Screenshots, FlatScreenshot{
					Screenshot:   sc,
					BlockID:      b.ID,
					BlockFlagged: b.IsFlagged,
					WindowID:     w.ID,
					WindowTitle:  title,
					GlobalIndex:  len(tl.Screenshots),
				})
			}
		}
	}
	tl.ScreenshotCount = len(tl.Screenshots)
	return tl
}

func (t Timeline) At(i int) (FlatScreenshot, bool) {
	if i < 0 || i >= len(t.Screenshots) {
		return FlatScreenshot{}, false
	}
	return t.Screenshots[i], true
}

// IndexOf finds the global index of a screenshot id.
func (t Timeline) IndexOf(screenshotID int64) (int, bool) {
	for _, f := range t.Screenshots {
		if f.ID == screenshotID {
			return f.GlobalIndex, true
		}
	}
	return 0, false
}

// ForBlock returns a block's screenshots in global order.
func (t Timeline) ForBlock(blockID int64) []FlatScreenshot {
	var out []FlatScreenshot
	for _, f := range t.Screenshots {
		if f.BlockID == blockID {
			out = append(out, f)
		}
	}
	return out
}

func (t Timeline) FlaggedScreenshotCount() int {
	n := 0
	for _, f := range t.Screenshots {
		if f.IsFlagged {
			n++
		}
	}
	return n
}

// DownloadName is the file name used when saving a screenshot locally.
func (f FlatScreenshot) DownloadName(now time.Time) string {
	if f.ID != 0 {
		return "screenshot-" + strconv.FormatInt(f.ID, 10) + ".png"
	}
	return "screenshot-" + strconv.FormatInt(now.UnixMilli(), 10) + ".png"
}
