package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"mindstorm-be/internal/bootstrap"
	"mindstorm-be/internal/config"
	"mindstorm-be/internal/server"
	"mindstorm-be/internal/tracer"
	"mindstorm-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	pool := database.DefaultPoolConfig()
	pool.Quiet = cfg.App.Environment == "production"
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, pool)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	srv := server.New(cfg, container)

	// 4. Background Services + HTTP server
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Println("Background: Starting Consumer Service...")
		return container.ConsumerService.Consume(gctx)
	})
	g.Go(func() error {
		return container.RealtimeService.Start(gctx)
	})
	g.Go(func() error {
		return container.EngagementService.Start(gctx)
	})
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Printf("Stopped: %v", err)
	}
}
