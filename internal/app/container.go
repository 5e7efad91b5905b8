// Package app assembles the gateway's long-lived dependencies.
package app

import (
	"context"
	"fmt"

	"github.com/speechgate/speechgate/internal/config"
	"github.com/speechgate/speechgate/internal/observability"
	"github.com/speechgate/speechgate/internal/providers"
	"github.com/speechgate/speechgate/internal/router"
)

// Container holds everything the HTTP layer and background loops need.
type Container struct {
	Config        *config.Config
	Factory       *providers.Factory
	Engine        *router.Engine
	Observability *observability.Provider
}

// NewContainer builds the provider factory, routing engine, and observability
// stack from configuration.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	obs, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	factory := providers.NewFactory(cfg)
	engine := router.NewEngine()
	if err := engine.Reload(ctx, factory); err != nil {
		return nil, fmt.Errorf("build routes: %w", err)
	}

	return &Container{
		Config:        cfg,
		Factory:       factory,
		Engine:        engine,
		Observability: obs,
	}, nil
}
