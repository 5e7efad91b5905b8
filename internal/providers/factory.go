package providers

import (
	"context"
	"fmt"

	"github.com/speechgate/speechgate/internal/catalog"
	"github.com/speechgate/speechgate/internal/config"
)

// Builder turns one model catalog entry into a servable Route.
type Builder func(ctx context.Context, cfg *config.Config, entry config.ModelCatalogEntry) (Route, error)

// Factory resolves catalog entries against the registered provider builders.
type Factory struct {
	cfg      *config.Config
	builders map[string]Builder
}

// NewFactory creates a factory seeded with the default provider registry.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg, builders: cloneDefaultBuilders()}
}

// Register installs or overrides a provider builder. Tests use this to swap
// in stub backends.
func (f *Factory) Register(name string, builder Builder) {
	if f.builders == nil {
		f.builders = make(map[string]Builder)
	}
	f.builders[name] = builder
}

// Build instantiates a Route for every enabled catalog entry, grouped by
// public alias. Provider names are normalized before builder lookup.
func (f *Factory) Build(ctx context.Context) (map[string][]Route, error) {
	routes := make(map[string][]Route)
	for _, entry := range f.cfg.ModelCatalog {
		if !entry.IsEnabled() {
			continue
		}
		entry.Provider = catalog.NormalizeProviderSlug(entry.Provider)
		builder, ok := f.builders[entry.Provider]
		if !ok {
			return nil, fmt.Errorf("alias %q: no builder registered for provider %q", entry.Alias, entry.Provider)
		}
		route, err := builder(ctx, f.cfg, entry)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", entry.Alias, err)
		}
		routes[entry.Alias] = append(routes[entry.Alias], route)
	}
	return routes, nil
}
