package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lotview/lotview/app/api"
	"github.com/lotview/lotview/app/cfg"
	"github.com/lotview/lotview/app/config"
	"github.com/lotview/lotview/app/database"
	"github.com/lotview/lotview/app/feed"
	"github.com/lotview/lotview/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting LotView server", "version", appCfg.Version)

	// Database connection
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	// Initialize repositories
	feedRepo := database.NewFeedRepository(db)
	invRepo := database.NewInventoryRepository(db)

	// Register seed feeds, if a seed file is configured
	seeds, err := config.NewLoader(appCfg.SeedFile).Load()
	if err != nil {
		slog.Error("Failed to load seed file", "error", err)
		os.Exit(1)
	}
	for _, seed := range seeds {
		f, created, err := feedRepo.CreateFeed(seed.URL)
		if err != nil {
			slog.Warn("Failed to register seed feed", "url", seed.URL, "error", err)
			continue
		}
		if seed.AutoUpdate {
			if err := feedRepo.SetAutoUpdate(f.ID, true); err != nil {
				slog.Warn("Failed to enable auto-update for seed feed", "feed_id", f.ID, "error", err)
			}
		}
		if created {
			slog.Info("Registered seed feed", "feed_id", f.ID, "url", seed.URL, "auto_update", seed.AutoUpdate)
		}
	}

	// Initialize core components
	processor := feed.NewProcessor(feed.NewFetcher(), feed.NewNormalizer(), feedRepo, invRepo)

	// Initialize and start scheduler
	scheduler := tasks.NewScheduler(feedRepo, processor)
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP server
	handler := api.NewHandler(feedRepo, invRepo, processor)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
