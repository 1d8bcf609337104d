package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks windowed buffer activity.
type Statistics struct {
	// Atomic counters for thread-safe updates
	inserts      int64
	drained      int64
	drains       int64
	evictions    int64
	droppedStale int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Insert records one insertion.
func (s *Statistics) Insert() {
	atomic.AddInt64(&s.inserts, 1)
}

// Drain records one drain releasing n entries.
func (s *Statistics) Drain(n int64) {
	atomic.AddInt64(&s.drains, 1)
	atomic.AddInt64(&s.drained, n)
}

// Eviction records one size-cap eviction.
func (s *Statistics) Eviction() {
	atomic.AddInt64(&s.evictions, 1)
}

// DroppedStale records n entries dropped for staleness.
func (s *Statistics) DroppedStale(n int64) {
	atomic.AddInt64(&s.droppedStale, n)
}

// UpdateSize updates the current buffer size.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
	s.mu.Unlock()
}

// Inserts returns the total number of insertions.
func (s *Statistics) Inserts() int64 {
	return atomic.LoadInt64(&s.inserts)
}

// Drains returns the total number of drain operations that released entries.
func (s *Statistics) Drains() int64 {
	return atomic.LoadInt64(&s.drains)
}

// Drained returns the total number of entries released by drains.
func (s *Statistics) Drained() int64 {
	return atomic.LoadInt64(&s.drained)
}

// Evictions returns the total number of size-cap evictions.
func (s *Statistics) Evictions() int64 {
	return atomic.LoadInt64(&s.evictions)
}

// DroppedStaleCount returns the total number of entries dropped for staleness.
func (s *Statistics) DroppedStaleCount() int64 {
	return atomic.LoadInt64(&s.droppedStale)
}

// CurrentSize returns the current number of buffered entries.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the maximum number of entries the buffer has held.
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// Uptime returns how long the buffer has existed.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}
