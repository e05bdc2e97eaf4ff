// Package notify holds the notification model and the cooldown tracker that
// throttles repeated alerts for the same condition.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// Notification is a single alert produced by a strategy signal.
type Notification struct {
	Symbol   string
	Strategy string
	Label    string
	Time     time.Time
	Message  string
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s/%s] %s: %s", n.Symbol, n.Strategy, n.Label, n.Message)
}

// DefaultCooldown is the suppression window between notifications that share
// a (symbol, strategy, label) key.
const DefaultCooldown = 2 * time.Hour

// historyDepth is how many past notifications are retained per key.
const historyDepth = 2

// Tracker decides whether a notification should be delivered. A notification
// is suppressed when the most recent delivered notification with the same
// (symbol, strategy, label) key is younger than the cooldown window.
// Safe for concurrent use.
type Tracker struct {
	cooldown time.Duration

	mu      sync.Mutex
	history map[trackerKey][]Notification
}

type trackerKey struct {
	symbol   string
	strategy string
	label    string
}

// NewTracker creates a Tracker with the given cooldown window.
// A non-positive cooldown falls back to DefaultCooldown.
func NewTracker(cooldown time.Duration) *Tracker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Tracker{
		cooldown: cooldown,
		history:  make(map[trackerKey][]Notification),
	}
}

// Register records the notification and reports whether it should be
// delivered. Suppressed notifications are not recorded, so a burst of
// signals does not extend the cooldown window.
func (t *Tracker) Register(n Notification) bool {
	key := trackerKey{symbol: n.Symbol, strategy: n.Strategy, label: n.Label}

	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.history[key]
	if len(bucket) > 0 {
		last := bucket[len(bucket)-1]
		if n.Time.Sub(last.Time) < t.cooldown {
			return false
		}
	}

	bucket = append(bucket, n)
	if len(bucket) > historyDepth {
		bucket = bucket[len(bucket)-historyDepth:]
	}
	t.history[key] = bucket
	return true
}

// Last returns the most recent delivered notification for the key, if any.
func (t *Tracker) Last(symbol, strategy, label string) (Notification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.history[trackerKey{symbol: symbol, strategy: strategy, label: label}]
	if len(bucket) == 0 {
		return Notification{}, false
	}
	return bucket[len(bucket)-1], true
}
