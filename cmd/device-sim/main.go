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

	"github.com/m0rjc/DeviceChannel/internal/config"
	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/device"
	"github.com/m0rjc/DeviceChannel/internal/handlers"
	"github.com/m0rjc/DeviceChannel/internal/logging"
	_ "github.com/m0rjc/DeviceChannel/internal/metrics" // Initialize metrics
	"github.com/m0rjc/DeviceChannel/internal/server"
	"github.com/m0rjc/DeviceChannel/internal/services/devicecontrol"
	"github.com/m0rjc/DeviceChannel/internal/websocket"
	"github.com/m0rjc/DeviceChannel/internal/worker"
)

func main() {
	// Initialize structured logging
	logging.InitLogger()

	slog.Info("starting device simulator")

	// Load configuration from environment
	cfg, err := config.LoadSimulator()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded successfully")

	// Initialize database (GORM handles migrations)
	dbConn, err := db.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	sqlDB, err := dbConn.DB()
	if err != nil {
		slog.Error("failed to get underlying database connection", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()
	slog.Info("database connection established")

	// Initialize Redis (telemetry fan-out, rate limiting, latest frame cache)
	redisClient, err := db.NewRedisClient(cfg.RedisURL, cfg.RedisKeyPrefix)
	if err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.Info("redis connection established", "key_prefix", cfg.RedisKeyPrefix)

	conns := db.NewConnections(dbConn, redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The simulated device and its services
	dev := device.New()
	hub := websocket.NewHub(redisClient)
	go hub.Run(ctx)

	broadcaster := worker.NewTelemetryBroadcaster(worker.TelemetryBroadcasterConfig{
		Interval:  cfg.BroadcastInterval,
		LatestTTL: 10 * cfg.BroadcastInterval,
	}, dev, hub, redisClient)
	broadcaster.Start(ctx)

	deps := &handlers.Dependencies{
		Config:  cfg,
		Conns:   conns,
		Hub:     hub,
		Control: devicecontrol.New(dev, conns),
	}

	srv := server.NewServer(deps)
	metricsSrv := server.NewMetricsServer(fmt.Sprintf(":%d", cfg.MetricsPort), deps)

	// Start metrics server in a goroutine
	go func() {
		slog.Info("metrics server listening", "address", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
			os.Exit(1)
		}
	}()

	// Start main server in a goroutine
	go func() {
		slog.Info("server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("received shutdown signal, shutting down gracefully")

	// Stop ticking and disconnect WebSocket clients; Shutdown does not wait
	// for hijacked connections.
	broadcaster.Stop()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown both servers concurrently
	errChan := make(chan error, 2)
	go func() {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errChan <- fmt.Errorf("main server shutdown error: %w", err)
		} else {
			errChan <- nil
		}
	}()
	go func() {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			errChan <- fmt.Errorf("metrics server shutdown error: %w", err)
		} else {
			errChan <- nil
		}
	}()

	// Wait for both shutdowns to complete
	for i := 0; i < 2; i++ {
		if err := <-errChan; err != nil {
			slog.Error("server forced to shutdown", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("servers exited successfully")
}
