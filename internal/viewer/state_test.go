package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStartsClosed(t *testing.T) {
	s := New(5, 0)
	assert.Equal(t, Closed, s.Mode)
	assert.Equal(t, DefaultWindowSize, s.WindowSize)
	assert.Equal(t, "closed", s.Mode.String())
}

func TestOpenAt(t *testing.T) {
	s := New(5, 3).OpenAt(2)
	assert.Equal(t, Viewing, s.Mode)
	assert.Equal(t, 2, s.Index)

	assert.Equal(t, Closed, New(5, 3).OpenAt(5).Mode, "out of range index is ignored")
	assert.Equal(t, Closed, New(5, 3).OpenAt(-1).Mode)
	assert.Equal(t, Closed, New(0, 3).OpenAt(0).Mode)
}

func TestNextPrevBoundaries(t *testing.T) {
	last := New(4, 3).OpenAt(3)
	assert.Equal(t, last, last.Next(), "next at last index is a no-op")

	first := New(4, 3).OpenAt(0)
	assert.Equal(t, first, first.Prev(), "prev at index 0 is a no-op")

	s := first.Next().Next()
	assert.Equal(t, 2, s.Index)
	s = s.Prev()
	assert.Equal(t, 1, s.Index)
}

func TestNavigationIgnoredWhenClosed(t *testing.T) {
	s := New(4, 3)
	assert.Equal(t, s, s.Next())
	assert.Equal(t, s, s.Prev())
	assert.Equal(t, s, s.JumpTo(2))
	assert.Equal(t, s, s.Close())
}

func TestClose(t *testing.T) {
	s := New(4, 3).OpenAt(1).Close()
	assert.Equal(t, Closed, s.Mode)
}

func TestJumpToThumbnail(t *testing.T) {
	s := New(10, 3).OpenAt(0).JumpTo(7)
	assert.Equal(t, 7, s.Index)
	assert.Equal(t, 6, s.ThumbStart)

	assert.Equal(t, 7, s.JumpTo(10).Index, "out of range jump is ignored")
}

func TestThumbnailWindowContainment(t *testing.T) {
	for _, total := range []int{3, 4, 5, 10} {
		for _, ws := range []int{1, 2, 3, 5} {
			if total < ws {
				continue
			}
			s := New(total, ws).OpenAt(0)
			check := func(s State) {
				t.Helper()
				assert.LessOrEqual(t, s.ThumbStart, s.Index, "total=%d ws=%d", total, ws)
				assert.LessOrEqual(t, s.Index, s.ThumbStart+ws-1, "total=%d ws=%d", total, ws)
				assert.GreaterOrEqual(t, s.ThumbStart, 0)
				assert.LessOrEqual(t, s.ThumbStart, total-ws)
			}
			check(s)
			for i := 0; i < total+2; i++ {
				s = s.Next()
				check(s)
			}
			for i := 0; i < total+2; i++ {
				s = s.Prev()
				check(s)
			}
			for j := total - 1; j >= 0; j-- {
				s = s.JumpTo(j)
				check(s)
			}
		}
	}
}

func TestThumbnailRecenterFormula(t *testing.T) {
	tests := []struct {
		total, index, want int
	}{
		{10, 0, 0},
		{10, 1, 0},
		{10, 2, 1},
		{10, 5, 4},
		{10, 8, 7},
		{10, 9, 7},
		{3, 2, 0},
		{2, 1, 0},
	}
	for _, tt := range tests {
		s := New(tt.total, 3).OpenAt(tt.index)
		assert.Equal(t, tt.want, s.ThumbStart, "total=%d index=%d", tt.total, tt.index)
	}
}

func TestThumbnailsRange(t *testing.T) {
	start, end := New(10, 3).OpenAt(5).Thumbnails()
	assert.Equal(t, 4, start)
	assert.Equal(t, 7, end)

	start, end = New(2, 3).OpenAt(1).Thumbnails()
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)
}

func TestKeyboardContract(t *testing.T) {
	s := New(3, 3).OpenAt(1)

	s = s.HandleKey(KeyRight)
	assert.Equal(t, 2, s.Index)
	s = s.HandleKey(KeyRight)
	assert.Equal(t, 2, s.Index)
	s = s.HandleKey(KeyLeft).HandleKey(KeyLeft).HandleKey(KeyLeft)
	assert.Equal(t, 0, s.Index)
	s = s.HandleKey(KeyEscape)
	assert.Equal(t, Closed, s.Mode)

	assert.Equal(t, s, s.HandleKey(KeyRight), "keys are ignored while closed")
}

func TestExplanationFromClosed(t *testing.T) {
	s := New(5, 3).OpenExplanation(42)
	assert.Equal(t, Explaining, s.Mode)
	assert.Equal(t, int64(42), s.BlockID)
	assert.False(t, s.ReturnsToViewing())

	next, refetch := s.SubmitExplanation()
	assert.True(t, refetch)
	assert.Equal(t, Closed, next.Mode)
	assert.Equal(t, int64(0), next.BlockID)
}

func TestExplanationFromViewingRestores(t *testing.T) {
	viewing := New(10, 3).OpenAt(6)
	s := viewing.OpenExplanation(3)
	assert.True(t, s.ReturnsToViewing())
	assert.Equal(t, s, s.Next(), "navigation is suspended while explaining")
	assert.Equal(t, s, s.OpenAt(1))

	cancelled := s.CancelExplanation()
	assert.Equal(t, Viewing, cancelled.Mode)
	assert.Equal(t, 6, cancelled.Index)
	assert.Equal(t, viewing.ThumbStart, cancelled.ThumbStart)

	escaped := s.HandleKey(KeyEscape)
	assert.Equal(t, cancelled, escaped)
}

func TestExplanationRetarget(t *testing.T) {
	s := New(10, 3).OpenAt(4).OpenExplanation(1).OpenExplanation(2)
	assert.Equal(t, int64(2), s.BlockID)
	back := s.CancelExplanation()
	assert.Equal(t, Viewing, back.Mode)
	assert.Equal(t, 4, back.Index)
}

func TestSubmitOutsideExplanation(t *testing.T) {
	s := New(3, 3).OpenAt(1)
	next, refetch := s.SubmitExplanation()
	assert.False(t, refetch)
	assert.Equal(t, s, next)
	assert.Equal(t, s, s.CancelExplanation())
}

func TestReanchorKeepsSelection(t *testing.T) {
	s := New(10, 3).OpenAt(8)
	s = s.Reanchor(12, 3, true)
	assert.Equal(t, Viewing, s.Mode)
	assert.Equal(t, 12, s.Total)
	assert.Equal(t, 3, s.Index)
	assert.Equal(t, 2, s.ThumbStart)
}

func TestReanchorClosesWhenScreenshotGone(t *testing.T) {
	s := New(10, 3).OpenAt(8).Reanchor(4, 0, false)
	assert.Equal(t, Closed, s.Mode)
	assert.Equal(t, 4, s.Total)

	s = New(10, 3).OpenAt(8).Reanchor(4, 6, true)
	assert.Equal(t, Closed, s.Mode, "index beyond new total closes")
}

func TestReanchorWhileExplaining(t *testing.T) {
	s := New(10, 3).OpenAt(8).OpenExplanation(5)
	s = s.Reanchor(9, 2, true)
	require.Equal(t, Explaining, s.Mode)

	back := s.CancelExplanation()
	assert.Equal(t, Viewing, back.Mode)
	assert.Equal(t, 2, back.Index)

	gone := New(10, 3).OpenAt(8).OpenExplanation(5).Reanchor(3, 0, false)
	assert.Equal(t, Closed, gone.CancelExplanation().Mode)
}

func TestReanchorClosed(t *testing.T) {
	s := New(3, 3).Reanchor(7, 0, false)
	assert.Equal(t, Closed, s.Mode)
	assert.Equal(t, 7, s.Total)
}

func TestResize(t *testing.T) {
	s := New(10, 3).OpenAt(9).Resize(5)
	assert.Equal(t, 5, s.WindowSize)
	assert.Equal(t, 5, s.ThumbStart)
	assert.Equal(t, DefaultWindowSize, s.Resize(0).WindowSize)
}

func TestAnchor(t *testing.T) {
	_, ok := New(5, 3).Anchor()
	assert.False(t, ok)

	i, ok := New(5, 3).OpenAt(4).Anchor()
	assert.True(t, ok)
	assert.Equal(t, 4, i)

	i, ok = New(5, 3).OpenAt(2).OpenExplanation(9).Anchor()
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = New(5, 3).OpenExplanation(9).Anchor()
	assert.False(t, ok)
}
