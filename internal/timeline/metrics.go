package timeline

import (
	"math"
	"time"

	"github.com/sadopc/trackview/internal/clock"
)

// BlockTimeMetrics is derived per block and never stored.
type BlockTimeMetrics struct {
	Worked       int64
	Idle         int64
	Total        int64
	Productivity int
}

// SessionMetrics aggregates a whole session. Worked and Idle are block sums,
// while Productivity uses the session's reported total as the denominator.
type SessionMetrics struct {
	WorkedSeconds     int64
	IdleSeconds       int64
	Productivity      int
	BlockTotalSeconds int64
	Diverges          bool
}

const (
	divergenceFloorSeconds = 60
	divergenceFraction     = 0.05
)

// ComputedIdle returns the block's idle seconds for the given total: the direct
// measure if present, else floor(total*ratio), else zero. Always within [0, total].
func (b TimeBlock) ComputedIdle(total int64) int64 {
	var idle int64
	switch {
	case b.IdleSeconds != nil:
		idle = *b.IdleSeconds
	case b.IdleRatio != nil:
		// clamp in float, a huge ratio would wrap on conversion
		f := math.Floor(float64(total) * *b.IdleRatio)
		switch {
		case math.IsNaN(f) || f <= 0:
			return 0
		case f >= float64(total):
			return total
		}
		idle = int64(f)
	}
	if idle < 0 {
		return 0
	}
	if idle > total {
		return total
	}
	return idle
}

// Calculator computes productivity metrics. Ongoing blocks are measured against Clock.
type Calculator struct {
	Clock clock.Clock
}

func NewCalculator(c clock.Clock) Calculator {
	if c == nil {
		c = clock.System{}
	}
	return Calculator{Clock: c}
}

func (c Calculator) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now()
}

// BlockTotal is max(floor(end-start), 0) in seconds, using now for an open block.
func (c Calculator) BlockTotal(b TimeBlock) int64 {
	end := c.now()
	if b.EndedAt != nil {
		end = *b.EndedAt
	}
	total := int64(end.Sub(b.StartedAt) / time.Second)
	if total < 0 {
		return 0
	}
	return total
}

func (c Calculator) Block(b TimeBlock) BlockTimeMetrics {
	total := c.BlockTotal(b)
	idle := b.ComputedIdle(total)
	worked := total - idle
	if worked < 0 {
		worked = 0
	}
	return BlockTimeMetrics{
		Worked:       worked,
		Idle:         idle,
		Total:        total,
		Productivity: percent(worked, total),
	}
}

// Blocks returns metrics in the session's block order.
func (c Calculator) Blocks(s *Session) []BlockTimeMetrics {
	out := make([]BlockTimeMetrics, len(s.TimeBlocks))
	for i, b := range s.TimeBlocks {
		out[i] = c.Block(b)
	}
	return out
}

func (c Calculator) Session(s *Session, perBlock []BlockTimeMetrics) SessionMetrics {
	var m SessionMetrics
	for _, b := range perBlock {
		m.WorkedSeconds += b.Worked
		m.IdleSeconds += b.Idle
		m.BlockTotalSeconds += b.Total
	}
	m.Productivity = percent(m.WorkedSeconds, s.TotalSeconds)
	m.Diverges = diverges(m.BlockTotalSeconds, s.TotalSeconds)
	return m
}

func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func diverges(blockSum, sessionTotal int64) bool {
	diff := blockSum - sessionTotal
	if diff < 0 {
		diff = -diff
	}
	tolerance := int64(math.Round(float64(sessionTotal) * divergenceFraction))
	if tolerance < divergenceFloorSeconds {
		tolerance = divergenceFloorSeconds
	}
	return diff > tolerance
}
