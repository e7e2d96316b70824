package pipeline

import (
	"fmt"
	"time"
)

// Bounds narrows the filtered message stream. Skip and Limit apply to
// filter-accepted messages, not raw fetches: Skip discards the first N
// accepted messages, Limit stops the run after N accepted messages have
// been yielded (0 means unbounded). After/Before bound timestamps to the
// half-open window [After, Before); a zero time leaves that side open.
type Bounds struct {
	Skip   int
	Limit  int
	After  time.Time
	Before time.Time
}

// Validate rejects impossible bounds. An inverted date window is not an
// error; it simply yields an empty result.
func (b Bounds) Validate() error {
	if b.Skip < 0 {
		return fmt.Errorf("%w: skip must not be negative, got %d", ErrConfiguration, b.Skip)
	}
	if b.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrConfiguration, b.Limit)
	}
	return nil
}

// Contains reports whether t lies inside the date window.
func (b Bounds) Contains(t time.Time) bool {
	if !b.After.IsZero() && t.Before(b.After) {
		return false
	}
	if !b.Before.IsZero() && !t.Before(b.Before) {
		return false
	}
	return true
}

// PastWindow reports whether t is older than the window's lower bound.
// Because the source is newest-first and timestamps are monotonic in fetch
// order, seeing such a message means no later fetch can match, so the run
// may stop fetching early.
func (b Bounds) PastWindow(t time.Time) bool {
	return !b.After.IsZero() && t.Before(b.After)
}
