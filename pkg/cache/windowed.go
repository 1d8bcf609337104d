package cache

import (
	"sync"
	"time"

	"github.com/flegmaatikko/purais/errors"
	"github.com/flegmaatikko/purais/pkg/timestamp"
)

const (
	// MinStaleness is the floor for the staleness threshold regardless of
	// the configured hold duration.
	MinStaleness = 120 * time.Second

	// MinCapacity is the floor for the entry cap.
	MinCapacity = 1000

	// ArrivalRate is the worst-case sustained arrival rate the buffer is
	// sized for, in entries per second.
	ArrivalRate = 20
)

// Entry is one buffered value with its receive timestamp.
type Entry[V any] struct {
	Seq  int64 // monotonically increasing insertion key
	Time int64 // receive timestamp, Unix milliseconds
	Val  V
}

// EvictCallback is called when an entry is evicted or dropped as stale.
type EvictCallback[V any] func(entry Entry[V])

// Windowed is an ordered, time/size-bounded buffer of values awaiting
// emission. Entries are inserted in non-decreasing time order by a single
// producer and drained in batches.
type Windowed[V any] struct {
	mu      sync.Mutex
	maxSize int
	maxTime time.Duration
	entries []Entry[V]
	nextSeq int64
	clock   func() int64 // current time in Unix milliseconds
	stats   *Statistics  // always initialized
	metrics *windowedMetrics
	evictFn EvictCallback[V]
}

// Bounds derives the buffer limits from a configured hold duration:
// the staleness threshold is at least MinStaleness, and the entry cap
// covers ArrivalRate entries per second of staleness window with a floor
// of MinCapacity.
func Bounds(hold time.Duration) (maxSize int, maxTime time.Duration) {
	maxTime = hold
	if maxTime < MinStaleness {
		maxTime = MinStaleness
	}
	maxSize = ArrivalRate * int(maxTime/time.Second)
	if maxSize < MinCapacity {
		maxSize = MinCapacity
	}
	return maxSize, maxTime
}

// NewWindowed creates a windowed buffer with explicit limits.
// Returns an error if metrics registration fails when requested.
func NewWindowed[V any](maxSize int, maxTime time.Duration, options ...Option[V]) (*Windowed[V], error) {
	opts := applyOptions(options...)

	if maxSize <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewWindowed", "non-positive size cap")
	}
	if maxTime <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewWindowed", "non-positive staleness threshold")
	}

	var metrics *windowedMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newWindowedMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewWindowed", "metrics registration")
		}
	}

	clock := opts.clock
	if clock == nil {
		clock = timestamp.Now
	}

	return &Windowed[V]{
		maxSize: maxSize,
		maxTime: maxTime,
		clock:   clock,
		stats:   NewStatistics(),
		metrics: metrics,
		evictFn: opts.evictCallback,
	}, nil
}

// NewForHold creates a windowed buffer sized for the given hold duration
// via Bounds.
func NewForHold[V any](hold time.Duration, options ...Option[V]) (*Windowed[V], error) {
	maxSize, maxTime := Bounds(hold)
	return NewWindowed[V](maxSize, maxTime, options...)
}

// Insert stores a value with its receive timestamp. If the insertion
// pushes the buffer over its size cap, the single oldest entry is evicted.
func (w *Windowed[V]) Insert(rxTime int64, value V) {
	var evicted *Entry[V]

	w.mu.Lock()
	entry := Entry[V]{Seq: w.nextSeq, Time: rxTime, Val: value}
	w.nextSeq++
	w.entries = append(w.entries, entry)

	if len(w.entries) > w.maxSize {
		evicted = &w.entries[0]
		w.entries = w.entries[1:]
		w.stats.Eviction()
		if w.metrics != nil {
			w.metrics.recordEviction()
		}
	}

	w.stats.Insert()
	w.stats.UpdateSize(int64(len(w.entries)))
	if w.metrics != nil {
		w.metrics.recordInsert()
		w.metrics.updateSize(len(w.entries))
	}
	w.mu.Unlock()

	// Callback outside the lock to prevent deadlock.
	if evicted != nil && w.evictFn != nil {
		w.evictFn(*evicted)
	}
}

// DrainDue removes and returns every non-stale entry, but only once the
// oldest entry has waited at least the hold duration or the buffer is at
// its size cap. Entries older than the staleness threshold are dropped,
// not returned. An empty buffer yields nil without consulting timestamps.
func (w *Windowed[V]) DrainDue(hold time.Duration) []Entry[V] {
	var dropped []Entry[V]
	var due []Entry[V]

	w.mu.Lock()
	if len(w.entries) == 0 {
		w.mu.Unlock()
		return nil
	}

	now := w.clock()
	oldest := w.entries[0].Time
	if oldest >= now-hold.Milliseconds() && len(w.entries) != w.maxSize {
		w.mu.Unlock()
		return nil
	}

	staleBefore := now - w.maxTime.Milliseconds()
	for _, entry := range w.entries {
		if entry.Time < staleBefore {
			dropped = append(dropped, entry)
		} else {
			due = append(due, entry)
		}
	}
	w.entries = nil

	w.stats.Drain(int64(len(due)))
	w.stats.DroppedStale(int64(len(dropped)))
	w.stats.UpdateSize(0)
	if w.metrics != nil {
		w.metrics.recordDrain(len(due))
		w.metrics.recordDroppedStale(len(dropped))
		w.metrics.updateSize(0)
	}
	w.mu.Unlock()

	if w.evictFn != nil {
		for _, entry := range dropped {
			w.evictFn(entry)
		}
	}

	return due
}

// Size returns the current number of buffered entries.
func (w *Windowed[V]) Size() int {
	w.mu.Lock()
	size := len(w.entries)
	w.mu.Unlock()
	return size
}

// Clear removes all buffered entries without draining them.
func (w *Windowed[V]) Clear() {
	w.mu.Lock()
	w.entries = nil
	w.stats.UpdateSize(0)
	if w.metrics != nil {
		w.metrics.updateSize(0)
	}
	w.mu.Unlock()
}

// Stats returns the buffer statistics.
func (w *Windowed[V]) Stats() *Statistics {
	return w.stats
}
