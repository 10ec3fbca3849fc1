package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/device"
	"github.com/m0rjc/DeviceChannel/internal/metrics"
	"github.com/m0rjc/DeviceChannel/internal/websocket"
)

// LatestTelemetryKey is the Redis key holding the most recent telemetry frame.
const LatestTelemetryKey = "telemetry:latest"

// Broadcaster publishes telemetry. *websocket.Hub implements it.
type Broadcaster interface {
	Broadcast(ctx context.Context, t websocket.Telemetry) error
}

// TelemetryBroadcasterConfig holds configuration for the telemetry broadcaster
type TelemetryBroadcasterConfig struct {
	// Interval between ticks. Each tick advances blink mode by one step.
	Interval time.Duration

	// LatestTTL is how long the cached latest frame lives in Redis.
	LatestTTL time.Duration
}

// DefaultConfig returns the default broadcaster configuration
func DefaultConfig() TelemetryBroadcasterConfig {
	return TelemetryBroadcasterConfig{
		Interval:  time.Second,
		LatestTTL: 10 * time.Second,
	}
}

// TelemetryBroadcaster ticks the device and broadcasts its state to all
// connected clients.
type TelemetryBroadcaster struct {
	config      TelemetryBroadcasterConfig
	device      *device.Device
	broadcaster Broadcaster
	redis       *db.RedisClient
	stopChan    chan struct{}
	wg          sync.WaitGroup
	running     bool
	mu          sync.Mutex
}

// NewTelemetryBroadcaster creates a new telemetry broadcaster. redis may be
// nil, in which case the latest frame is not cached.
func NewTelemetryBroadcaster(config TelemetryBroadcasterConfig, dev *device.Device, broadcaster Broadcaster, redis *db.RedisClient) *TelemetryBroadcaster {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.LatestTTL <= 0 {
		config.LatestTTL = DefaultConfig().LatestTTL
	}
	return &TelemetryBroadcaster{
		config:      config,
		device:      dev,
		broadcaster: broadcaster,
		redis:       redis,
		stopChan:    make(chan struct{}),
	}
}

// Start starts the broadcast loop
func (b *TelemetryBroadcaster) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return
	}
	b.running = true
	b.stopChan = make(chan struct{})

	b.wg.Add(1)
	go b.loop(ctx, b.stopChan)

	slog.Info("worker.telemetry.started",
		"component", "worker.telemetry",
		"event", "broadcaster.started",
		"interval", b.config.Interval,
	)
}

// Stop stops the broadcast loop and waits for it to exit
func (b *TelemetryBroadcaster) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	close(b.stopChan)
	b.running = false
	b.mu.Unlock()

	b.wg.Wait()
	slog.Info("worker.telemetry.stopped",
		"component", "worker.telemetry",
		"event", "broadcaster.stopped",
	)
}

func (b *TelemetryBroadcaster) loop(ctx context.Context, stop <-chan struct{}) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick advances the device by one step and broadcasts the resulting state.
// Errors are logged and counted; the next tick tries again.
func (b *TelemetryBroadcaster) Tick(ctx context.Context) websocket.Telemetry {
	state := b.device.Tick()
	t := websocket.Telemetry{
		Uptime: state.UptimeSeconds(),
		LED:    state.LED,
	}

	if err := b.broadcaster.Broadcast(ctx, t); err != nil {
		metrics.TelemetryBroadcasts.WithLabelValues("error").Inc()
		slog.Error("worker.telemetry.broadcast_failed",
			"component", "worker.telemetry",
			"event", "broadcast.error",
			"error", err,
		)
	} else {
		metrics.TelemetryBroadcasts.WithLabelValues("ok").Inc()
	}

	if b.redis != nil {
		if err := b.redis.SetJSON(ctx, LatestTelemetryKey, t, b.config.LatestTTL); err != nil {
			slog.Warn("worker.telemetry.cache_failed",
				"component", "worker.telemetry",
				"event", "cache.error",
				"error", err,
			)
		}
	}

	return t
}
