package session

import (
	"sync"
	"time"
)

// cursorThrottle is a fixed one-second window rate limiter, one per
// connection. Updates beyond the limit inside a window are dropped rather
// than queued; cursor updates carry absolute positions, so the next allowed
// update supersedes anything dropped.
type cursorThrottle struct {
	mu     sync.Mutex
	limit  int
	window time.Time
	count  int
}

func newCursorThrottle(limit int) *cursorThrottle {
	if limit <= 0 {
		limit = 10
	}
	return &cursorThrottle{limit: limit}
}

// Allow reports whether an update at now fits in the current window.
func (t *cursorThrottle) Allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	window := now.Truncate(time.Second)
	if window.After(t.window) {
		t.window = window
		t.count = 0
	}
	if t.count >= t.limit {
		return false
	}
	t.count++
	return true
}
