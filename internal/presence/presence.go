// Package presence tracks which conversation the operator is looking at
// right now, so inbound-message alerts can be suppressed for the thread they
// already have open. State is process memory only; it resets on restart,
// which is acceptable for a best-effort UX signal.
package presence

import (
	"sync"
	"time"
)

// Tracker records at most one active conversation at a time. A single
// operator views one thread; setting a new active phone evicts all others.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Tracker{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewTrackerWithClock injects a clock for tests.
func NewTrackerWithClock(ttl time.Duration, now func() time.Time) *Tracker {
	t := NewTracker(ttl)
	t.now = now
	return t
}

// SetActive marks phone as the one open conversation, evicting every other
// entry. An empty phone only purges stale entries.
func (t *Tracker) SetActive(phone string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked()
	for key := range t.entries {
		if key != phone {
			delete(t.entries, key)
		}
	}
	if phone != "" {
		t.entries[phone] = t.now()
	}
}

// ClearActive drops phone's presence, e.g. when the operator closes the
// conversation view.
func (t *Tracker) ClearActive(phone string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked()
	if phone != "" {
		delete(t.entries, phone)
	}
}

// IsActive reports whether the operator currently has phone's conversation
// open.
func (t *Tracker) IsActive(phone string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.expireLocked()
	if phone == "" {
		return false
	}
	_, ok := t.entries[phone]
	return ok
}

// expireLocked lazily purges entries older than the TTL. Callers hold t.mu.
func (t *Tracker) expireLocked() {
	now := t.now()
	for phone, seenAt := range t.entries {
		if now.Sub(seenAt) > t.ttl {
			delete(t.entries, phone)
		}
	}
}
