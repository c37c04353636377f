// Package viewer holds the evidence viewer's navigation state. Every transition
// is a pure function from State to State; callers keep the returned value.
package viewer

type Mode int

const (
	Closed Mode = iota
	Viewing
	Explaining
)

var modeNames = map[Mode]string{
	Closed:     "closed",
	Viewing:    "viewing",
	Explaining: "explaining",
}

func (m Mode) String() string { return modeNames[m] }

// DefaultWindowSize is the number of thumbnails visible in the paging strip.
const DefaultWindowSize = 3

// Key is a viewer keyboard input.
type Key int

const (
	KeyEscape Key = iota
	KeyLeft
	KeyRight
)

type State struct {
	Mode       Mode
	Index      int
	BlockID    int64
	ThumbStart int
	Total      int
	WindowSize int

	// where to return after an explanation is submitted or cancelled
	prevMode  Mode
	prevIndex int
}

func New(total, windowSize int) State {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	if total < 0 {
		total = 0
	}
	return State{Mode: Closed, Total: total, WindowSize: windowSize}
}

func (s State) inRange(i int) bool { return i >= 0 && i < s.Total }

// OpenAt starts (or moves) the slideshow at index i. Out-of-range indices are ignored.
func (s State) OpenAt(i int) State {
	if s.Mode == Explaining || !s.inRange(i) {
		return s
	}
	s.Mode = Viewing
	s.Index = i
	return s.recenter()
}

func (s State) Next() State {
	if s.Mode != Viewing || !s.inRange(s.Index+1) {
		return s
	}
	s.Index++
	return s.recenter()
}

func (s State) Prev() State {
	if s.Mode != Viewing || !s.inRange(s.Index-1) {
		return s
	}
	s.Index--
	return s.recenter()
}

// JumpTo selects a thumbnail from the paging strip.
func (s State) JumpTo(j int) State {
	if s.Mode != Viewing || !s.inRange(j) {
		return s
	}
	s.Index = j
	return s.recenter()
}

func (s State) Close() State {
	if s.Mode != Viewing {
		return s
	}
	s.Mode = Closed
	return s
}

// OpenExplanation enters the explanation flow for a block from any state.
func (s State) OpenExplanation(blockID int64) State {
	if s.Mode != Explaining {
		s.prevMode = s.Mode
		s.prevIndex = s.Index
	}
	s.Mode = Explaining
	s.BlockID = blockID
	return s
}

// SubmitExplanation leaves the explanation flow. The second result reports
// that the session must be re-fetched; local block state is never patched.
func (s State) SubmitExplanation() (State, bool) {
	if s.Mode != Explaining {
		return s, false
	}
	return s.restore(), true
}

func (s State) CancelExplanation() State {
	if s.Mode != Explaining {
		return s
	}
	return s.restore()
}

func (s State) restore() State {
	s.Mode = s.prevMode
	s.Index = s.prevIndex
	s.BlockID = 0
	if s.Mode == Viewing && !s.inRange(s.Index) {
		s.Mode = Closed
	}
	return s.recenter()
}

// HandleKey applies the keyboard contract. Keys are ignored while closed.
func (s State) HandleKey(k Key) State {
	switch s.Mode {
	case Viewing:
		switch k {
		case KeyEscape:
			return s.Close()
		case KeyLeft:
			return s.Prev()
		case KeyRight:
			return s.Next()
		}
	case Explaining:
		if k == KeyEscape {
			return s.CancelExplanation()
		}
	}
	return s
}

// Reanchor adapts the state to a freshly normalized timeline. index/ok is the
// new position of the previously selected screenshot; when it is gone the
// viewer closes.
func (s State) Reanchor(total, index int, ok bool) State {
	if total < 0 {
		total = 0
	}
	s.Total = total
	anchor := func(mode Mode, i int) (Mode, int) {
		if mode != Viewing {
			return mode, i
		}
		if !ok || !s.inRange(index) {
			return Closed, 0
		}
		return Viewing, index
	}
	if s.Mode == Explaining {
		s.prevMode, s.prevIndex = anchor(s.prevMode, s.prevIndex)
		return s
	}
	s.Mode, s.Index = anchor(s.Mode, s.Index)
	return s.recenter()
}

// Resize changes the thumbnail window size.
func (s State) Resize(windowSize int) State {
	if windowSize < 1 {
		windowSize = DefaultWindowSize
	}
	s.WindowSize = windowSize
	return s.recenter()
}

func (s State) recenter() State {
	if s.Total <= s.WindowSize {
		s.ThumbStart = 0
		return s
	}
	start := s.Index - s.WindowSize/2
	if start > s.Total-s.WindowSize {
		start = s.Total - s.WindowSize
	}
	if start < 0 {
		start = 0
	}
	s.ThumbStart = start
	return s
}

// Thumbnails returns the half-open range of visible thumbnail indices.
func (s State) Thumbnails() (start, end int) {
	end = s.ThumbStart + s.WindowSize
	if end > s.Total {
		end = s.Total
	}
	return s.ThumbStart, end
}

// Anchor returns the screenshot index that is on screen, or will be again once
// an explanation flow ends.
func (s State) Anchor() (int, bool) {
	switch {
	case s.Mode == Viewing:
		return s.Index, true
	case s.Mode == Explaining && s.prevMode == Viewing:
		return s.prevIndex, true
	}
	return 0, false
}

// ReturnsToViewing reports whether leaving the explanation flow resumes the slideshow.
func (s State) ReturnsToViewing() bool {
	return s.Mode == Explaining && s.prevMode == Viewing
}
