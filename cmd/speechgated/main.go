package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/speechgate/speechgate/internal/app"
	"github.com/speechgate/speechgate/internal/config"
	"github.com/speechgate/speechgate/internal/health"
	"github.com/speechgate/speechgate/internal/httpserver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	container, err := app.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("build container: %v", err)
	}
	if container.Observability != nil {
		defer container.Observability.Shutdown(ctx)
	}

	health.NewMonitor(container.Engine, cfg.Health).Start(ctx, container.Engine.ListAliases)

	server, err := httpserver.New(container)
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}

	if err := server.Listen(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server stopped: %v", err)
	}
}
