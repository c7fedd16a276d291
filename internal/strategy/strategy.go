// Package strategy defines the Strategy interface for per-bar trading
// decisions and provides a Registry for managing multiple strategy
// implementations.
package strategy

import (
	"sort"

	"dipper/internal/domain"
	"dipper/internal/indicator"
)

// Strategy is the interface that all trading strategies must implement. A
// strategy is a pure decision function: given a bar, its indicator frame, and
// the currently open position (nil when flat), it returns one Decision.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Evaluate returns the decision for the given bar. Implementations must
	// not retain references to the arguments or mutate the position.
	Evaluate(bar domain.Bar, frame indicator.Frame, pos *domain.Position) domain.Decision
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
