package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/metrics"
)

// CommandSink receives decoded client commands.
type CommandSink interface {
	ApplyCommand(ctx context.Context, client ClientInfo, cmd DeviceCommand) error
}

// HandlerOptions configures ClientWebSocketHandler.
type HandlerOptions struct {
	// AllowedOrigins lists accepted Origin header values. Empty allows any
	// origin; "*" also allows any.
	AllowedOrigins []string

	// CommandsPerSecond caps commands per client connection. 0 disables the
	// limit.
	CommandsPerSecond int64

	// Limiter counts commands. Nil uses the hub's Redis client.
	Limiter db.RateLimiter
}

// commandRateLimitName is the rate limit bucket name for client commands.
const commandRateLimitName = "commands"

// ClientWebSocketHandler returns an http.HandlerFunc for GET /ws.
//
// The handler upgrades the connection, greets the client, registers it with
// the hub for telemetry and forwards its commands to sink.
func ClientWebSocketHandler(hub *Hub, sink CommandSink, opts HandlerOptions) http.HandlerFunc {
	upgrader := ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

	greeting, _ := json.Marshal(ConnectedGreeting())

	limiter := opts.Limiter
	if limiter == nil && opts.CommandsPerSecond > 0 {
		limiter = hub.redis
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrader writes the error response itself.
			slog.Error("websocket.handler.upgrade_failed",
				"component", "websocket",
				"event", "handler.upgrade_error",
				"error", err,
			)
			return
		}

		c := &clientConn{
			hub:        hub,
			conn:       conn,
			send:       make(chan []byte, sendBufferSize),
			id:         uuid.NewString(),
			remoteAddr: r.RemoteAddr,
		}

		slog.Info("websocket.handler.connected",
			"component", "websocket",
			"event", "handler.connected",
			"conn_id", c.id,
			"remote_addr", r.RemoteAddr,
		)
		c.send <- greeting
		hub.register(c)

		// writePump runs in a separate goroutine; readPump blocks until the
		// connection closes (and then unregisters the client from the hub).
		go c.writePump()
		c.readPump(r.Context(), sink, limiter, opts.CommandsPerSecond)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// No Origin header: native clients, curl.
			return true
		}
		origin = strings.TrimSuffix(origin, "/")
		for _, a := range allowed {
			if a == "*" || strings.TrimSuffix(a, "/") == origin {
				return true
			}
		}
		return false
	}
}

// readPump runs in the handler goroutine. It applies incoming commands until
// the connection closes, then unregisters the client.
func (c *clientConn) readPump(ctx context.Context, sink CommandSink, limiter db.RateLimiter, perSecond int64) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		if limiter != nil && perSecond > 0 {
			limiter.ResetRateLimit(context.WithoutCancel(ctx), commandRateLimitName, c.id) //nolint:errcheck
		}
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure, ws.CloseNormalClosure) {
				slog.Warn("websocket.client.unexpected_close",
					"component", "websocket",
					"event", "client.read_error",
					"conn_id", c.id,
					"error", err,
				)
			}
			return
		}
		// Any inbound frame proves the client is alive.
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout)) //nolint:errcheck

		c.handleCommand(ctx, sink, limiter, perSecond, data)
	}
}

func (c *clientConn) handleCommand(ctx context.Context, sink CommandSink, limiter db.RateLimiter, perSecond int64, data []byte) {
	cmd, err := DecodeDeviceCommand(data)
	if err != nil {
		metrics.CommandsReceived.WithLabelValues("invalid").Inc()
		slog.Warn("websocket.client.invalid_command",
			"component", "websocket",
			"event", "client.decode_error",
			"conn_id", c.id,
		)
		return
	}

	if limiter != nil && perSecond > 0 {
		result, err := limiter.CheckRateLimit(ctx, commandRateLimitName, c.id, perSecond, time.Second)
		if err != nil {
			// Fail open.
			slog.Error("websocket.client.rate_limit_error",
				"component", "websocket",
				"event", "client.rate_limit_error",
				"conn_id", c.id,
				"error", err,
			)
		} else if !result.Allowed {
			metrics.CommandsReceived.WithLabelValues("rate_limited").Inc()
			slog.Warn("websocket.client.rate_limited",
				"component", "websocket",
				"event", "client.rate_limited",
				"conn_id", c.id,
				"retry_after", result.RetryAfter,
			)
			return
		}
	}

	if err := sink.ApplyCommand(ctx, ClientInfo{ID: c.id, RemoteAddr: c.remoteAddr}, cmd); err != nil {
		metrics.CommandsReceived.WithLabelValues("error").Inc()
		slog.Error("websocket.client.apply_failed",
			"component", "websocket",
			"event", "client.apply_error",
			"conn_id", c.id,
			"error", err,
		)
		return
	}
	metrics.CommandsReceived.WithLabelValues("applied").Inc()
}
