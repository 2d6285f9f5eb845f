package engine

import "sync/atomic"

// SeqClock hands out strictly increasing sequence numbers. Clock is the
// production implementation; tests substitute a resettable clock.
type SeqClock interface {
	Next() int64
}

// Clock is a monotonic logical clock. Every recorded invocation and
// completion is stamped with the next value; wall-clock time is never used
// for ordering.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
// Used by replay to resume at a stored run's first seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
