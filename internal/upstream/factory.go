// Package upstream provides a factory for creating backend instances.
package upstream

import (
	"context"
	"fmt"
	"sort"

	"rivachat/config"
	"rivachat/internal/core"
)

// Builder creates a backend instance from configuration.
type Builder func(ctx context.Context, cfg *config.Config) (core.Upstream, error)

// registry holds all registered backend builders.
var registry = make(map[string]Builder)

// Register allows backend packages to register themselves. This should
// be called from init() functions in backend packages.
func Register(backend string, builder Builder) {
	registry[backend] = builder
}

// New instantiates the backend named in cfg.Relay.Backend.
func New(ctx context.Context, cfg *config.Config) (core.Upstream, error) {
	builder, ok := registry[cfg.Relay.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown relay backend %q (registered: %v)",
			cfg.Relay.Backend, ListRegistered())
	}
	return builder(ctx, cfg)
}

// ListRegistered returns the names of all registered backends, sorted.
func ListRegistered() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
