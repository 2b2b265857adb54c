package capture

import "sync/atomic"

// Stats holds counters for conditions the capture pipeline tolerates rather
// than fails on, per the Overflow error class: when the byte channel
// feeding the model is full, the oldest chunk is dropped and Dropped is
// incremented instead of blocking the child's PTY.
type Stats struct {
	dropped int64
}

// IncrementDropped records one dropped chunk.
func (s *Stats) IncrementDropped() {
	atomic.AddInt64(&s.dropped, 1)
}

// Dropped returns the total number of dropped chunks so far.
func (s *Stats) Dropped() int64 {
	return atomic.LoadInt64(&s.dropped)
}
