package timeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/trackview/internal/clock"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func at(offset time.Duration) *time.Time {
	t := t0.Add(offset)
	return &t
}

func fixedCalc(now time.Time) Calculator {
	return NewCalculator(clock.Fixed(now))
}

func TestBlockMetricsIdleSeconds(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(time.Hour), IdleSeconds: ptr(int64(600))}

	m := c.Block(b)
	assert.Equal(t, BlockTimeMetrics{Worked: 3000, Idle: 600, Total: 3600, Productivity: 83}, m)
}

func TestBlockMetricsIdleRatioFallback(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(1001 * time.Second), IdleRatio: ptr(0.25)}

	m := c.Block(b)
	assert.Equal(t, int64(1001), m.Total)
	assert.Equal(t, int64(250), m.Idle, "floor(1001*0.25)")
	assert.Equal(t, int64(751), m.Worked)
	assert.Equal(t, 75, m.Productivity)
}

func TestBlockMetricsIdleSecondsWinsOverRatio(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(100 * time.Second), IdleSeconds: ptr(int64(10)), IdleRatio: ptr(0.9)}

	assert.Equal(t, int64(10), c.Block(b).Idle)
}

func TestBlockMetricsNoIdleMeasure(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(90 * time.Second)}

	m := c.Block(b)
	assert.Equal(t, BlockTimeMetrics{Worked: 90, Idle: 0, Total: 90, Productivity: 100}, m)
}

func TestBlockMetricsZeroDuration(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(0), IdleSeconds: ptr(int64(30))}

	assert.Equal(t, BlockTimeMetrics{}, c.Block(b))
}

func TestBlockMetricsEndBeforeStart(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(-time.Minute)}

	m := c.Block(b)
	assert.Equal(t, int64(0), m.Total)
	assert.Equal(t, 0, m.Productivity)
}

func TestBlockMetricsIdleExceedsTotal(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(100 * time.Second), IdleSeconds: ptr(int64(500))}

	m := c.Block(b)
	assert.Equal(t, int64(0), m.Worked)
	assert.Equal(t, int64(100), m.Idle)
	assert.Equal(t, m.Total, m.Worked+m.Idle)
	assert.Equal(t, 0, m.Productivity)
}

func TestBlockMetricsOutOfRangeRatio(t *testing.T) {
	c := fixedCalc(t0)
	tests := []struct {
		name  string
		ratio float64
		idle  int64
	}{
		{"above one", 1.5, 3600},
		{"huge", 1e16, 3600},
		{"infinite", math.Inf(1), 3600},
		{"huge negative", -1e16, 0},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(time.Hour), IdleRatio: ptr(tt.ratio)}

			m := c.Block(b)
			assert.Equal(t, int64(3600), m.Total)
			assert.Equal(t, tt.idle, m.Idle)
			assert.Equal(t, m.Total, m.Worked+m.Idle)
			if tt.idle == m.Total {
				assert.Equal(t, 0, m.Productivity)
			}
		})
	}
}

func TestBlockMetricsNegativeIdle(t *testing.T) {
	c := fixedCalc(t0)
	b := TimeBlock{ID: 1, StartedAt: t0, EndedAt: at(100 * time.Second), IdleSeconds: ptr(int64(-20))}

	m := c.Block(b)
	assert.Equal(t, int64(0), m.Idle)
	assert.Equal(t, int64(100), m.Worked)
}

func TestBlockMetricsOngoingNonDecreasing(t *testing.T) {
	b := TimeBlock{ID: 1, StartedAt: t0, IdleRatio: ptr(0.1)}

	prev := int64(-1)
	for _, offset := range []time.Duration{0, time.Second, time.Minute, time.Minute, time.Hour} {
		m := fixedCalc(t0.Add(offset)).Block(b)
		assert.GreaterOrEqual(t, m.Total, prev)
		prev = m.Total
	}
	assert.Equal(t, int64(3600), prev)
}

func TestBlockMetricsClampingProperty(t *testing.T) {
	c := fixedCalc(t0.Add(2 * time.Hour))
	blocks := []TimeBlock{
		{StartedAt: t0, EndedAt: at(0)},
		{StartedAt: t0, EndedAt: at(7 * time.Second), IdleRatio: ptr(0.33)},
		{StartedAt: t0, EndedAt: at(time.Hour), IdleRatio: ptr(1.5)},
		{StartedAt: t0, EndedAt: at(time.Hour), IdleRatio: ptr(-0.5)},
		{StartedAt: t0, IdleSeconds: ptr(int64(99999))},
		{StartedAt: t0.Add(3 * time.Hour)},
	}
	for i, b := range blocks {
		m := c.Block(b)
		assert.GreaterOrEqual(t, m.Worked, int64(0), "block %d", i)
		assert.GreaterOrEqual(t, m.Idle, int64(0), "block %d", i)
		assert.Equal(t, m.Total, m.Worked+m.Idle, "block %d", i)
		assert.GreaterOrEqual(t, m.Productivity, 0, "block %d", i)
		assert.LessOrEqual(t, m.Productivity, 100, "block %d", i)
	}
}

func TestSessionMetricsScenarioA(t *testing.T) {
	c := fixedCalc(t0)
	s := &Session{
		ID:           1,
		StartedAt:    t0,
		EndedAt:      at(time.Hour),
		TotalSeconds: 3600,
		TimeBlocks: []TimeBlock{
			{ID: 1, StartedAt: t0, EndedAt: at(time.Hour), IdleSeconds: ptr(int64(600))},
		},
	}

	blocks := c.Blocks(s)
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockTimeMetrics{Worked: 3000, Idle: 600, Total: 3600, Productivity: 83}, blocks[0])

	sm := c.Session(s, blocks)
	assert.Equal(t, int64(3000), sm.WorkedSeconds)
	assert.Equal(t, int64(600), sm.IdleSeconds)
	assert.Equal(t, 83, sm.Productivity)
	assert.False(t, sm.Diverges)
}

func TestSessionMetricsUsesSessionTotalAsDenominator(t *testing.T) {
	c := fixedCalc(t0)
	s := &Session{
		StartedAt:    t0,
		TotalSeconds: 1800,
		TimeBlocks: []TimeBlock{
			{ID: 1, StartedAt: t0, EndedAt: at(30 * time.Minute)},
			{ID: 2, StartedAt: t0, EndedAt: at(30 * time.Minute)},
		},
	}

	sm := c.Session(s, c.Blocks(s))
	assert.Equal(t, int64(3600), sm.WorkedSeconds)
	assert.Equal(t, 200, sm.Productivity, "overlapping blocks are not reconciled")
	assert.Equal(t, int64(3600), sm.BlockTotalSeconds)
	assert.True(t, sm.Diverges)
}

func TestSessionMetricsZeroTotal(t *testing.T) {
	c := fixedCalc(t0)
	s := &Session{StartedAt: t0, TimeBlocks: []TimeBlock{{ID: 1, StartedAt: t0, EndedAt: at(time.Minute)}}}

	sm := c.Session(s, c.Blocks(s))
	assert.Equal(t, 0, sm.Productivity)
	assert.Equal(t, int64(60), sm.WorkedSeconds)
}

func TestDivergenceTolerance(t *testing.T) {
	tests := []struct {
		blockSum, total int64
		want            bool
	}{
		{3600, 3600, false},
		{3780, 3600, false},
		{3781, 3600, true},
		{30, 0, false},
		{61, 0, true},
		{36000, 37800, false},
		{36000, 38000, true},
		{0, 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, diverges(tt.blockSum, tt.total), "diverges(%d, %d)", tt.blockSum, tt.total)
	}
}

func TestNewCalculatorDefaultsToSystemClock(t *testing.T) {
	c := NewCalculator(nil)
	b := TimeBlock{StartedAt: time.Now().Add(-10 * time.Second)}
	assert.GreaterOrEqual(t, c.Block(b).Total, int64(9))
}
