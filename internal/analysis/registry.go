package analysis

import (
	"sort"
	"sync"

	"github.com/inquesthq/inquest/internal/logging"
)

// StrategyRegistry holds the analysis strategies available to the analyzer.
// Registration normally happens once at construction time, but the registry
// is safe for concurrent use so strategies can be swapped at runtime.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	logger     *logging.Logger
}

// NewStrategyRegistry creates an empty registry.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: make(map[string]Strategy),
		logger:     logging.GetLogger("analysis.registry"),
	}
}

// Register adds a strategy under its id. Re-registering an id replaces the
// previous strategy. Nil strategies and empty ids are ignored.
func (r *StrategyRegistry) Register(s Strategy) {
	if s == nil || s.ID() == "" {
		r.logger.Warn("Ignoring strategy registration with missing id")
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[s.ID()]; exists {
		r.logger.Debug("Replacing registered strategy %q", s.ID())
	}
	r.strategies[s.ID()] = s
}

// Remove deletes a strategy by id and reports whether it was present.
func (r *StrategyRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.strategies[id]
	delete(r.strategies, id)
	return ok
}

// Get returns the strategy registered under id.
func (r *StrategyRegistry) Get(id string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[id]
	return s, ok
}

// List returns the registered ids, sorted.
func (r *StrategyRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.strategies))
	for id := range r.strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Select resolves the strategies to run for one analysis. When requested ids
// are given they win: each unknown id is logged and skipped, never an error.
// Otherwise the classification type picks the default set. The result may be
// empty.
func (r *StrategyRegistry) Select(cls ErrorClassification, requested []string) []Strategy {
	if len(requested) > 0 {
		var out []Strategy
		for _, id := range requested {
			s, ok := r.Get(id)
			if !ok {
				r.logger.Warn("Requested strategy %q is not registered, skipping", id)
				continue
			}
			out = append(out, s)
		}
		return out
	}

	var ids []string
	switch cls.Type {
	case ErrorTypeConnection, ErrorTypeTimeout, ErrorTypeDatabase:
		ids = []string{StrategyEventCorrelation, StrategyDependencyAnalysis, StrategyPatternMatching}
	case ErrorTypeState:
		ids = []string{StrategyEventCorrelation, StrategyDependencyAnalysis, StrategyPatternMatching, StrategyStateAnalysis}
	default:
		ids = []string{StrategyPatternMatching}
	}

	var out []Strategy
	for _, id := range ids {
		if s, ok := r.Get(id); ok {
			out = append(out, s)
		} else {
			r.logger.Debug("Default strategy %q is not registered", id)
		}
	}
	return out
}
