package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/m0rjc/DeviceChannel/internal/config"
	"github.com/m0rjc/DeviceChannel/internal/console"
	"github.com/m0rjc/DeviceChannel/internal/devicechannel"
	"github.com/m0rjc/DeviceChannel/internal/logging"
	"github.com/m0rjc/DeviceChannel/internal/server"
)

func main() {
	// stdout carries the display, so logs go to stderr
	logging.InitLoggerTo(os.Stderr)

	cfg, err := config.LoadChannel()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.MetricsAddr != "" {
		metricsSrv := server.NewMetricsServer(cfg.MetricsAddr, nil)
		go func() {
			slog.Info("metrics server listening", "address", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	display := devicechannel.NewWriterDisplay(os.Stdout, devicechannel.UptimeElementID, devicechannel.LEDElementID)
	ch := devicechannel.Open(ctx, cfg.DeviceOrigin, display, devicechannel.WithLabels(devicechannel.Labels{
		On:  cfg.LEDOnLabel,
		Off: cfg.LEDOffLabel,
	}))
	defer ch.Close()

	if ch.Connected() {
		go func() {
			if err := ch.Run(ctx); err != nil {
				slog.Error("channel stopped", "error", err)
				return
			}
			slog.Info("channel closed")
		}()
	}

	// Input keeps working after the channel drops; sends then fail with
	// ErrNotConnected and are logged.
	done := make(chan error, 1)
	go func() { done <- console.NewControls(ch).Run(ctx, os.Stdin) }()

	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil {
			slog.Error("console input failed", "error", err)
		}
	}
}
