package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/metrics"
)

const (
	pingInterval   = 30 * time.Second
	pongTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
	readLimit      = 512
	sendBufferSize = 16

	// TelemetryChannel is the Redis pub/sub channel telemetry is fanned out on.
	// Every simulator replica subscribes to it.
	TelemetryChannel = "ws:telemetry"
)

// clientConn holds a single client's WebSocket connection state.
type clientConn struct {
	hub        *Hub
	conn       *ws.Conn
	send       chan []byte
	id         string
	remoteAddr string
}

// Hub is the in-memory registry of connected clients.
// It bridges Redis pub/sub telemetry to locally-connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*clientConn]struct{}

	redis *db.RedisClient

	ready     chan struct{}
	readyOnce sync.Once
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new Hub backed by the given RedisClient.
func NewHub(redis *db.RedisClient) *Hub {
	return &Hub{
		clients: make(map[*clientConn]struct{}),
		redis:   redis,
		ready:   make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

// Ready is closed once Redis has confirmed the telemetry subscription.
// Broadcasts made before that may not reach local clients.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

// ClientCount returns the number of clients connected to this instance.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *clientConn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.ConnectedClients.Inc()
	slog.Info("websocket.hub.client_registered",
		"component", "websocket",
		"event", "hub.register",
		"conn_id", c.id,
		"remote_addr", c.remoteAddr,
	)
}

// unregister removes c and closes its send channel, which stops its write
// pump. Only the first call for a given connection has any effect.
func (h *Hub) unregister(c *clientConn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	metrics.ConnectedClients.Dec()
	slog.Info("websocket.hub.client_unregistered",
		"component", "websocket",
		"event", "hub.unregister",
		"conn_id", c.id,
		"remote_addr", c.remoteAddr,
	)
}

// Broadcast publishes telemetry to every client of every replica.
func (h *Hub) Broadcast(ctx context.Context, t Telemetry) error {
	return h.redis.Publish(ctx, TelemetryChannel, t)
}

// Run starts the hub's Redis pub/sub listener. Call it in a goroutine.
// It blocks until ctx is cancelled or Close is called.
func (h *Hub) Run(ctx context.Context) {
	pubSub := h.redis.Subscribe(ctx, TelemetryChannel)
	defer pubSub.Close()

	// Events() includes subscription confirmations, so Ready only fires once
	// Redis has actually registered the subscription.
	eventCh := pubSub.Events()

	for {
		select {
		case <-ctx.Done():
			h.closeAllConnections()
			return
		case <-h.closeCh:
			h.closeAllConnections()
			return

		case event, ok := <-eventCh:
			if !ok {
				return
			}
			switch event.Kind {
			case db.PubSubSubscribed:
				if event.Channel == TelemetryChannel {
					h.readyOnce.Do(func() { close(h.ready) })
				}

			case db.PubSubMessage:
				if event.Channel != TelemetryChannel {
					continue
				}
				if !json.Valid([]byte(event.Payload)) {
					slog.Warn("websocket.hub.bad_redis_payload",
						"component", "websocket",
						"event", "hub.decode_error",
						"channel", event.Channel,
					)
					continue
				}
				h.deliver([]byte(event.Payload))
			}
		}
	}
}

// deliver sends payload to all locally-registered clients.
func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		// A client with a full buffer misses this frame and gets the next one.
		select {
		case c.send <- payload:
		default:
			slog.Warn("websocket.hub.send_buffer_full",
				"component", "websocket",
				"event", "hub.drop_message",
				"conn_id", c.id,
			)
		}
	}
}

// closeAllConnections unregisters every client, causing their write pumps to
// send a close frame and terminate.
func (h *Hub) closeAllConnections() {
	h.mu.RLock()
	conns := make([]*clientConn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.unregister(c)
	}
}

// Close shuts down the hub, disconnecting all clients. Safe to call multiple times.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.closeCh) })
}

// writePump runs in a goroutine per client. It writes outgoing frames and
// sends periodic pings.
func (c *clientConn) writePump() {
	pingTicker := time.NewTicker(pingInterval)
	defer func() {
		pingTicker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, "")) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, payload); err != nil {
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
