package flow

import (
	"log/slog"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/registry"
)

// Resolver supplies definitions for targets that are not cards of the graph,
// such as host-provided synthetic destinations. It returns nil for unknown ids.
type Resolver func(id string) domain.Definition

// Option configures a Graph.
type Option func(*Graph)

// WithRegistry sets the card type registry. Defaults to registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(g *Graph) {
		g.registry = r
	}
}

// WithResolver installs the auxiliary resolver consulted when a reference
// target is not found among the graph's cards.
func WithResolver(r Resolver) Option {
	return func(g *Graph) {
		g.resolver = r
	}
}

// WithLogger configures a logger for load-time diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}
