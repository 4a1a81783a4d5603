package monitor

import (
	"context"
	"fmt"

	"PressWatch/internal/config"
	"PressWatch/internal/domain"
	"PressWatch/internal/ports"
)

// Monitor produces the new, deduplicated article candidates for one symbol.
// Most symbols are served by the generic config-driven implementation; a
// named strategy is the escape hatch for pages that cannot be described
// declaratively.
type Monitor interface {
	Symbol() string
	FetchAndExtract(ctx context.Context, session ports.FetchSession, known map[domain.TitleDate]struct{}) ([]domain.ArticleCandidate, error)
}

// Factory builds a Monitor for a symbol from its extraction config.
type Factory func(symbol string, cfg config.ExtractionConfig) (Monitor, error)

// Registry maps strategy names to monitor factories. The zero-value
// strategy resolves to the fallback (config-driven) factory.
type Registry struct {
	fallback  Factory
	factories map[string]Factory
}

// NewRegistry builds a registry around the default factory.
func NewRegistry(fallback Factory) *Registry {
	return &Registry{fallback: fallback, factories: map[string]Factory{}}
}

// Register adds or replaces a named strategy.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Build instantiates a monitor per configured symbol. Unknown strategy
// names fail here, at configuration load, rather than mid-cycle.
func (r *Registry) Build(targets map[string]config.ExtractionConfig) (map[string]Monitor, error) {
	monitors := make(map[string]Monitor, len(targets))
	for symbol, tc := range targets {
		factory := r.fallback
		if tc.Strategy != "" {
			named, ok := r.factories[tc.Strategy]
			if !ok {
				return nil, fmt.Errorf("target %s: strategy %q is not registered", symbol, tc.Strategy)
			}
			factory = named
		}
		if factory == nil {
			return nil, fmt.Errorf("target %s: no monitor factory available", symbol)
		}

		m, err := factory(symbol, tc)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", symbol, err)
		}
		monitors[symbol] = m
	}
	return monitors, nil
}
