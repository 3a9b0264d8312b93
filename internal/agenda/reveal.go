package agenda

import (
	"sync"
	"time"
)

const (
	defaultInitialBuckets = 5
	defaultStep           = 5
	defaultDebounce       = 300 * time.Millisecond
)

// Reveal paginates the day-grouped projection for progressive disclosure.
// It is independent of fetching: revealing more buckets never implies
// loading more data. Advancing is debounced so a burst of near-bottom
// scroll signals increments the window once, not once per signal.
type Reveal struct {
	mu       sync.Mutex
	visible  int
	step     int
	debounce time.Duration
	busy     bool
}

// NewReveal creates a controller showing initial buckets and growing by
// step per advance. Non-positive arguments fall back to defaults.
func NewReveal(initial, step int, debounce time.Duration) *Reveal {
	if initial <= 0 {
		initial = defaultInitialBuckets
	}
	if step <= 0 {
		step = defaultStep
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Reveal{visible: initial, step: step, debounce: debounce}
}

// Visible returns the current number of revealed buckets.
func (r *Reveal) Visible() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// Busy reports whether an advance is inside its debounce window. Callers
// use it to suppress duplicate near-bottom triggers.
func (r *Reveal) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Advance grows the visible window by one step and reports whether it did.
// Calls landing inside a previous advance's debounce window are no-ops, so
// repeated triggers cannot double-increment.
func (r *Reveal) Advance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy {
		return false
	}
	r.visible += r.step
	r.busy = true

	time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
	})
	return true
}

// Reset shrinks the window back to n buckets, e.g. after a filter change.
func (r *Reveal) Reset(n int) {
	if n <= 0 {
		n = defaultInitialBuckets
	}
	r.mu.Lock()
	r.visible = n
	r.mu.Unlock()
}

// VisibleSlice returns the first n buckets.
func VisibleSlice(buckets []DayBucket, n int) []DayBucket {
	if n < 0 {
		n = 0
	}
	if n > len(buckets) {
		n = len(buckets)
	}
	return buckets[:n]
}

// HasMore reports whether buckets beyond the first n remain hidden.
func HasMore(buckets []DayBucket, n int) bool {
	return len(buckets) > n
}
