package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/m0rjc/DeviceChannel/internal/db"
	"github.com/m0rjc/DeviceChannel/internal/device"
	"github.com/m0rjc/DeviceChannel/internal/services/devicecontrol"
	"github.com/m0rjc/DeviceChannel/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func client(addr string) websocket.ClientInfo {
	return websocket.ClientInfo{ID: "conn-" + addr, RemoteAddr: addr}
}

// newTestDeps wires handlers against in-memory SQLite and miniredis.
func newTestDeps(t *testing.T) (*Dependencies, *miniredis.Miniredis) {
	t.Helper()

	conns := db.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rc, err := db.NewRedisClient("redis://"+mr.Addr(), "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	conns.Redis = rc

	return &Dependencies{
		Conns:   conns,
		Hub:     websocket.NewHub(rc),
		Control: devicecontrol.New(device.New(), conns),
	}, mr
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyHandler(t *testing.T) {
	deps, mr := newTestDeps(t)

	rec := httptest.NewRecorder()
	ReadyHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","database":"ok","redis":"ok"}`, rec.Body.String())

	mr.SetError("LOADING server is loading")

	rec = httptest.NewRecorder()
	ReadyHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not ready","database":"ok","redis":"error"}`, rec.Body.String())
}

func TestRootHandlerRedirects(t *testing.T) {
	rec := httptest.NewRecorder()
	RootHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/status.json", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	RootHandler(rec, httptest.NewRequest(http.MethodGet, "/index", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusHandler(t *testing.T) {
	deps, _ := newTestDeps(t)
	require.NoError(t, deps.Control.ApplyCommand(context.Background(), client("c"), websocket.DeviceCommand{LED: boolPtr(true), Blink: boolPtr(true)}))

	rec := httptest.NewRecorder()
	StatusHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/status.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.LED)
	assert.True(t, got.Blink)
	assert.Equal(t, 0, got.Clients)
	assert.GreaterOrEqual(t, got.UptimeSec, int64(0))
	assert.Equal(t, "AP", got.WifiMode)
	assert.Equal(t, "ESP32-Setup", got.WifiSSID)
	assert.Equal(t, "192.168.10.1", got.IP)
	assert.Equal(t, "255.255.255.0", got.Subnet)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	for _, key := range []string{"uptime_sec", "counter", "wifi_mode", "wifi_ssid", "ip", "subnet", "free_heap"} {
		assert.Contains(t, fields, key)
	}
}

func TestStatusHandler_MethodNotAllowed(t *testing.T) {
	deps, _ := newTestDeps(t)

	rec := httptest.NewRecorder()
	StatusHandler(deps)(rec, httptest.NewRequest(http.MethodPost, "/status.json", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUptimeHandler(t *testing.T) {
	deps, _ := newTestDeps(t)

	rec := httptest.NewRecorder()
	UptimeHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/uptime", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "0", rec.Body.String())
}

func TestCommandLogHandler(t *testing.T) {
	deps, _ := newTestDeps(t)
	ctx := context.Background()
	require.NoError(t, deps.Control.ApplyCommand(ctx, client("10.0.0.1:1"), websocket.DeviceCommand{LED: boolPtr(true)}))
	require.NoError(t, deps.Control.ApplyCommand(ctx, client("10.0.0.2:1"), websocket.DeviceCommand{Blink: boolPtr(true)}))

	rec := httptest.NewRecorder()
	CommandLogHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/commands.json?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []CommandLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "10.0.0.2:1", entries[0].RemoteAddr)
	assert.Nil(t, entries[0].LED)
	require.NotNil(t, entries[0].Blink)
	assert.True(t, *entries[0].Blink)
}

func TestCommandLogHandler_BadLimit(t *testing.T) {
	deps, _ := newTestDeps(t)

	for _, q := range []string{"limit=0", "limit=abc", "limit=-3"} {
		rec := httptest.NewRecorder()
		CommandLogHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/commands.json?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}
