package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/skyward-data/flighttrace/internal/api"
	"github.com/skyward-data/flighttrace/internal/config"
	"github.com/skyward-data/flighttrace/internal/ingest"
	"github.com/skyward-data/flighttrace/internal/storage/sqlite"
	"github.com/skyward-data/flighttrace/internal/telemetry"
	"github.com/skyward-data/flighttrace/internal/websocket"
	"github.com/skyward-data/flighttrace/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting FlightTrace server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Generate today's database filename
	today := time.Now().UTC().Format("2006-01-02")
	dbFilename := fmt.Sprintf("flighttrace-%s.db", today)
	dbPath := filepath.Join(cfg.Storage.SQLiteBasePath, dbFilename)

	// Ensure the directory exists
	if err := os.MkdirAll(cfg.Storage.SQLiteBasePath, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", cfg.Storage.SQLiteBasePath))
		os.Exit(1)
	}

	log.Info("Using daily database", logger.String("path", dbPath))

	storage, err := sqlite.NewWaypointStorage(dbPath, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer storage.Close()

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	// Create telemetry client
	telemetryClient := telemetry.NewClient(
		cfg.Telemetry.BaseURL,
		cfg.Telemetry.APIKey,
		time.Duration(cfg.Telemetry.RequestTimeoutSecs)*time.Second,
		log,
	)

	// Create and start the ingest service
	ingestService := ingest.NewService(telemetryClient, storage, wsServer, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ingestService.Start(ctx); err != nil {
		log.Error("Failed to start ingest service", logger.Error(err))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(ingestService, storage, cfg, log, wsServer)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error on startup", logger.String("addr", addr), logger.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	// Stop background services first
	log.Info("Stopping ingest service...")
	if err := ingestService.Stop(); err != nil {
		log.Error("Error stopping ingest service", logger.Error(err))
	}
	log.Info("Ingest service stopped.")

	// Cancel the main context
	cancel()

	// Shutdown the HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	log.Info("Server fully stopped")
}
