// Package analytics provides the strategy registry and the built-in
// strategies evaluated against a live market series. A strategy turns a
// series into a result payload for WebSocket subscribers and, when a
// configured condition fires, a signal for the notification pipeline.
package analytics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quantstream/marketd/internal/domain"
	"github.com/quantstream/marketd/internal/domain/market"
)

// Result is the outcome of evaluating a strategy against a series.
// Fields are strategy-specific numeric values keyed for the wire payload.
// A nil Result means the series does not yet support the strategy (for
// example, fewer bars than the SMA window).
type Result struct {
	AsOf   time.Time
	Fields map[string]float64
}

// Signal marks a strategy condition worth notifying about. Label
// distinguishes signal kinds within one strategy ("above", "below") and is
// the cooldown suppression key together with the strategy name.
type Signal struct {
	Label   string
	Message string
}

// Strategy evaluates a market series.
type Strategy interface {
	// Name returns the registry key, also used in WebSocket pool names.
	Name() string

	// Evaluate computes the strategy over the series. Result is nil when the
	// series is too short. Signal is non-nil only when a notifiable
	// condition fired on the latest bar.
	Evaluate(s market.Series) (*Result, *Signal, error)
}

// Registry holds named strategies. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates a registry pre-populated with the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

// Register adds or replaces a strategy under its own name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get returns the strategy registered under name.
// Returns domain.ErrNotFound if no such strategy exists.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q: %w", name, domain.ErrNotFound)
	}
	return s, nil
}

// Exists reports whether a strategy is registered under name.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[name]
	return ok
}

// Names returns the registered strategy names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
