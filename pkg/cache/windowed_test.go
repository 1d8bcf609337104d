package cache

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable millisecond time source.
type fakeClock struct {
	now int64
}

func (c *fakeClock) read() int64 { return c.now }

func newTestBuffer(t *testing.T, maxSize int, maxTime time.Duration, clk *fakeClock) *Windowed[string] {
	t.Helper()
	w, err := NewWindowed[string](maxSize, maxTime, WithClock[string](clk.read))
	require.NoError(t, err)
	return w
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name     string
		hold     time.Duration
		wantSize int
		wantTime time.Duration
	}{
		{"zero hold uses floors", 0, 2400, 120 * time.Second},
		{"short hold uses floors", 30 * time.Second, 2400, 120 * time.Second},
		{"long hold scales capacity", 300 * time.Second, 6000, 300 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, staleness := Bounds(tt.hold)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantTime, staleness)
		})
	}
}

func TestInvalidLimits(t *testing.T) {
	_, err := NewWindowed[string](0, time.Minute)
	assert.Error(t, err)
	_, err = NewWindowed[string](10, 0)
	assert.Error(t, err)
}

func TestInsertEvictsOldestAtCap(t *testing.T) {
	clk := &fakeClock{now: 1_000_000}
	var evicted []Entry[string]
	w, err := NewWindowed[string](3, time.Minute,
		WithClock[string](clk.read),
		WithEvictionCallback[string](func(e Entry[string]) { evicted = append(evicted, e) }))
	require.NoError(t, err)

	w.Insert(1000, "a")
	w.Insert(2000, "b")
	w.Insert(3000, "c")
	assert.Equal(t, 3, w.Size())

	w.Insert(4000, "d")
	assert.Equal(t, 3, w.Size(), "size must stay at the cap")
	require.Len(t, evicted, 1)
	assert.Equal(t, "a", evicted[0].Val, "exactly the oldest entry is evicted")
	assert.Equal(t, int64(1), w.Stats().Evictions())
}

func TestSequenceNumbersAreUniqueForEqualTimestamps(t *testing.T) {
	clk := &fakeClock{now: 10_000}
	w := newTestBuffer(t, 10, 2*time.Minute, clk)

	// Burst arrival within one clock tick.
	w.Insert(5000, "a")
	w.Insert(5000, "b")
	w.Insert(5000, "c")

	clk.now = 5000 + 61_000
	due := w.DrainDue(60 * time.Second)
	require.Len(t, due, 3)
	assert.Less(t, due[0].Seq, due[1].Seq)
	assert.Less(t, due[1].Seq, due[2].Seq)
	assert.Equal(t, []string{"a", "b", "c"}, []string{due[0].Val, due[1].Val, due[2].Val})
}

func TestDrainDueEmptyBuffer(t *testing.T) {
	clk := &fakeClock{now: 10_000}
	w := newTestBuffer(t, 10, time.Minute, clk)
	assert.Nil(t, w.DrainDue(time.Second))
}

func TestDrainDueHoldNotReached(t *testing.T) {
	clk := &fakeClock{now: 100_000}
	w := newTestBuffer(t, 10, time.Minute, clk)

	w.Insert(95_000, "a") // 5s old, hold is 30s
	assert.Nil(t, w.DrainDue(30*time.Second))
	assert.Equal(t, 1, w.Size(), "entries stay buffered until due")
}

func TestDrainDueReleasesAllOnceOldestIsDue(t *testing.T) {
	clk := &fakeClock{now: 200_000}
	w := newTestBuffer(t, 10, time.Minute, clk)

	w.Insert(160_000, "a") // 40s old
	w.Insert(199_000, "b") // 1s old

	due := w.DrainDue(30 * time.Second)
	require.Len(t, due, 2, "emission is all-or-nothing per trigger")
	assert.Equal(t, 0, w.Size())
}

func TestDrainDueFullBufferTriggersRegardlessOfAge(t *testing.T) {
	clk := &fakeClock{now: 100_000}
	w := newTestBuffer(t, 2, time.Minute, clk)

	w.Insert(99_000, "a")
	w.Insert(99_500, "b")

	due := w.DrainDue(30 * time.Second)
	require.Len(t, due, 2, "a full buffer must shed even before the hold elapses")
}

func TestDrainDueDropsStaleEntries(t *testing.T) {
	clk := &fakeClock{now: 1_000_000}
	var dropped []Entry[string]
	w, err := NewWindowed[string](10, 120*time.Second,
		WithClock[string](clk.read),
		WithEvictionCallback[string](func(e Entry[string]) { dropped = append(dropped, e) }))
	require.NoError(t, err)

	w.Insert(1_000_000-130_000, "stale") // older than maxTime
	w.Insert(1_000_000-40_000, "fresh")  // past hold but within maxTime

	due := w.DrainDue(30 * time.Second)
	require.Len(t, due, 1)
	assert.Equal(t, "fresh", due[0].Val)
	require.Len(t, dropped, 1)
	assert.Equal(t, "stale", dropped[0].Val)
	assert.Equal(t, int64(1), w.Stats().DroppedStaleCount())
}

func TestDrainDueBoundaryIsStrict(t *testing.T) {
	clk := &fakeClock{now: 100_000}
	w := newTestBuffer(t, 10, time.Minute, clk)

	// Exactly hold seconds old: not yet due (strict less-than).
	w.Insert(70_000, "a")
	assert.Nil(t, w.DrainDue(30*time.Second))

	clk.now = 100_001
	due := w.DrainDue(30 * time.Second)
	require.Len(t, due, 1)
}

func TestClear(t *testing.T) {
	clk := &fakeClock{now: 100_000}
	w := newTestBuffer(t, 10, time.Minute, clk)
	w.Insert(99_000, "a")
	w.Clear()
	assert.Equal(t, 0, w.Size())
	assert.Nil(t, w.DrainDue(0))
}

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	w, err := NewWindowed[string](5, time.Minute, WithMetrics[string](reg, "test"))
	require.NoError(t, err)
	w.Insert(1000, "a")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestStatsTracking(t *testing.T) {
	clk := &fakeClock{now: 500_000}
	w := newTestBuffer(t, 10, time.Minute, clk)

	// 40 s old: past the 30 s hold, inside the 60 s staleness window.
	w.Insert(460_000, "a")
	w.Insert(460_001, "b")
	assert.Equal(t, int64(2), w.Stats().Inserts())
	assert.Equal(t, int64(2), w.Stats().CurrentSize())

	due := w.DrainDue(30 * time.Second)
	require.Len(t, due, 2)
	assert.Equal(t, int64(1), w.Stats().Drains())
	assert.Equal(t, int64(2), w.Stats().Drained())
	assert.Equal(t, int64(0), w.Stats().CurrentSize())
	assert.Equal(t, int64(2), w.Stats().MaxSize())
}

func TestStatsCountDroppedStale(t *testing.T) {
	clk := &fakeClock{now: 500_000}
	w := newTestBuffer(t, 10, time.Minute, clk)

	// 100 s old: older than the 60 s staleness threshold.
	w.Insert(400_000, "a")
	w.Insert(400_001, "b")

	due := w.DrainDue(30 * time.Second)
	assert.Empty(t, due)
	assert.Equal(t, int64(2), w.Stats().DroppedStaleCount())
	assert.Equal(t, int64(1), w.Stats().Drains())
	assert.Equal(t, int64(0), w.Stats().Drained())
	assert.Equal(t, int64(0), w.Stats().CurrentSize())
}
