// Package hub provides named broadcast pools for a single symbol's feed.
// Subscribers (WebSocket connections in practice) register on a pool such as
// "live" or "analytics-sma" and receive every payload published to it.
package hub

import (
	"sort"
	"sync"

	"github.com/quantstream/marketd/internal/ports"
)

// Hub fans payloads out to named subscriber pools. Safe for concurrent use.
// A subscriber whose Send fails is dropped from the pool; the next publish
// will not see it.
type Hub struct {
	mu    sync.RWMutex
	pools map[string]map[ports.Subscriber]struct{}
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{pools: make(map[string]map[ports.Subscriber]struct{})}
}

// Register adds sub to the named pool, creating the pool on first use.
// Registering the same subscriber twice is a no-op.
func (h *Hub) Register(pool string, sub ports.Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.pools[pool]
	if !ok {
		p = make(map[ports.Subscriber]struct{})
		h.pools[pool] = p
	}
	p[sub] = struct{}{}
}

// Unregister removes sub from the named pool. Unknown pools and subscribers
// are ignored. An emptied pool is removed so Pools() only reports pools with
// listeners.
func (h *Hub) Unregister(pool string, sub ports.Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.pools[pool]
	if !ok {
		return
	}
	delete(p, sub)
	if len(p) == 0 {
		delete(h.pools, pool)
	}
}

// Publish sends payload to every subscriber in the named pool and returns the
// number of successful deliveries. Subscribers whose Send fails are dropped.
// Sends happen outside the lock so a slow subscriber cannot block Register.
func (h *Hub) Publish(pool string, payload []byte) int {
	h.mu.RLock()
	snapshot := make([]ports.Subscriber, 0, len(h.pools[pool]))
	for sub := range h.pools[pool] {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	var failed []ports.Subscriber
	delivered := 0
	for _, sub := range snapshot {
		if err := sub.Send(payload); err != nil {
			failed = append(failed, sub)
			continue
		}
		delivered++
	}

	for _, sub := range failed {
		h.Unregister(pool, sub)
	}

	return delivered
}

// Subscribers returns the number of subscribers in the named pool.
func (h *Hub) Subscribers(pool string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pools[pool])
}

// Pools returns the names of pools that currently have subscribers, sorted.
func (h *Hub) Pools() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.pools))
	for name := range h.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
