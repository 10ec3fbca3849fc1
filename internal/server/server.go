package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/m0rjc/DeviceChannel/internal/handlers"
	"github.com/m0rjc/DeviceChannel/internal/metrics"
	"github.com/m0rjc/DeviceChannel/internal/middleware"
	"github.com/m0rjc/DeviceChannel/internal/templates"
	"github.com/m0rjc/DeviceChannel/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler builds the simulator's public routes with the middleware chain applied.
func NewHandler(deps *handlers.Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Device endpoints
	mux.HandleFunc("/ws", websocket.ClientWebSocketHandler(deps.Hub, deps.Control, websocket.HandlerOptions{
		AllowedOrigins:    deps.Config.AllowedOrigins,
		CommandsPerSecond: deps.Config.CommandRateLimit,
	}))
	mux.HandleFunc("/status.json", handlers.StatusHandler(deps))
	mux.HandleFunc("/uptime", handlers.UptimeHandler(deps))
	mux.HandleFunc("/counter", handlers.CounterHandler(deps))
	mux.HandleFunc("/counterReset", handlers.CounterResetHandler(deps))
	mux.HandleFunc("/commands.json", handlers.CommandLogHandler(deps))

	// Pages
	mux.HandleFunc("/status", handlers.StatusPageHandler(deps))
	mux.HandleFunc("/websocket", handlers.WebSocketPageHandler(deps))
	mux.HandleFunc("/config", handlers.ConfigPageHandler(deps))
	mux.HandleFunc("/save_config", handlers.SaveConfigHandler(deps))
	static := templates.StaticHandler()
	mux.Handle("/script.js", static)
	mux.Handle("/style.css", static)

	mux.HandleFunc("/", handlers.RootHandler)

	// Apply middleware chain:
	// 1. Logging middleware - applied to all routes
	// 2. Security headers - applied to all routes
	return loggingMiddleware(middleware.SecurityHeadersMiddleware(mux))
}

func NewServer(deps *handlers.Dependencies) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", deps.Config.Host, deps.Config.Port),
		Handler: NewHandler(deps),
	}
}

// NewMetricsServer creates a new HTTP server for internal metrics and health checks
// This server should not be exposed to the public internet
func NewMetricsServer(addr string, deps *handlers.Dependencies) *http.Server {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/health", handlers.HealthHandler)
	if deps != nil {
		mux.HandleFunc("/ready", handlers.ReadyHandler(deps))
	}

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		path := routeLabel(r.URL.Path)

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(sw.statusCode),
		).Observe(duration.Seconds())

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method,
			path,
			strconv.Itoa(sw.statusCode),
		).Inc()

		slog.Info("http.request",
			"component", "http",
			"event", "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

// routeLabel keeps metric cardinality bounded for unknown paths.
func routeLabel(path string) string {
	switch path {
	case "/", "/ws", "/status.json", "/uptime", "/counter", "/counterReset", "/commands.json",
		"/status", "/websocket", "/config", "/save_config", "/script.js", "/style.css":
		return path
	default:
		return "other"
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade take over the connection.
func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	sw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
