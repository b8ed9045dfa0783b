package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/leadgear/prospector/internal/agent"
	"github.com/leadgear/prospector/internal/config"
	"github.com/leadgear/prospector/internal/db"
	"github.com/leadgear/prospector/internal/event"
	"github.com/leadgear/prospector/internal/provider"
	"github.com/leadgear/prospector/internal/server"
	"github.com/leadgear/prospector/migrations"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.LogLevel == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Connect to PostgreSQL
	dbClient, err := db.NewClient(ctx, cfg.DatabaseURL, sugar)
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbClient.Close()

	if cfg.MigrateOnStart {
		if err := dbClient.RunMigrations(ctx, migrations.FS); err != nil {
			sugar.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// 2. Create event bus
	eventBus := event.NewBus(sugar)

	// 3. Select providers
	providers := provider.MockProviders()
	if cfg.ProviderMode != "mock" {
		sugar.Fatalf("Unknown provider mode: %s", cfg.ProviderMode)
	}
	providers = provider.Throttled(providers, cfg.ProviderRPS, cfg.ProviderBurst)

	// 4. Create cycle orchestrator
	orchestrator := agent.NewOrchestrator(dbClient, providers, eventBus, sugar)

	// 5. Start HTTP server
	srv := server.New(orchestrator, dbClient, dbClient, eventBus, sugar)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		sugar.Infof("Prospector agent listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Failed to serve: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Shutdown error", "error", err)
	}
	sugar.Info("Server stopped")
}
