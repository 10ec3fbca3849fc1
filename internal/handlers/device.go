package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/m0rjc/DeviceChannel/internal/db/commandaudit"
)

// StatusResponse is the body of GET /status.json
type StatusResponse struct {
	UptimeSec int64  `json:"uptime_sec"`
	Counter   int64  `json:"counter"`
	WifiMode  string `json:"wifi_mode"`
	WifiSSID  string `json:"wifi_ssid"`
	IP        string `json:"ip"`
	Subnet    string `json:"subnet"`
	FreeHeap  uint64 `json:"free_heap"`
	LED       bool   `json:"led"`
	Blink     bool   `json:"blink"`
	Clients   int    `json:"clients"`
}

// CommandLogEntry is one entry of GET /commands.json
type CommandLogEntry struct {
	ConnectionID string `json:"connection_id"`
	RemoteAddr   string `json:"remote_addr"`
	LED          *bool  `json:"led,omitempty"`
	Blink        *bool  `json:"blink,omitempty"`
	At           string `json:"at"`
}

const (
	defaultCommandLogLimit = 20
	maxCommandLogLimit     = 200
)

// RootHandler redirects / to the JSON status.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/status.json", http.StatusFound)
}

// StatusHandler serves the device state as JSON.
func StatusHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state := deps.Control.Status()
		network := deps.Control.Network()
		response := StatusResponse{
			UptimeSec: state.UptimeSeconds(),
			Counter:   state.Counter,
			WifiMode:  network.Mode,
			WifiSSID:  network.SSID,
			IP:        network.IP,
			Subnet:    network.Subnet,
			FreeHeap:  freeHeap(),
			LED:       state.LED,
			Blink:     state.Blink,
		}
		if deps.Hub != nil {
			response.Clients = deps.Hub.ClientCount()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// UptimeHandler serves the uptime in whole seconds as plain text.
func UptimeHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(strconv.FormatInt(deps.Control.Status().UptimeSeconds(), 10)))
	}
}

// CounterHandler serves the seconds counter as plain text.
func CounterHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(strconv.FormatInt(deps.Control.Status().Counter, 10)))
	}
}

// CounterResetHandler sets the counter back to zero and answers "Ok".
func CounterResetHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		deps.Control.ResetCounter()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Ok"))
	}
}

// freeHeap stands in for the device's free heap: idle heap bytes not yet
// returned to the OS.
func freeHeap() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapIdle - ms.HeapReleased
}

// CommandLogHandler serves the most recent audited commands, newest first.
// The optional "limit" query parameter caps the number of entries.
func CommandLogHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := defaultCommandLogLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxCommandLogLimit)
		}

		logs, err := commandaudit.ListRecent(deps.Conns.WithContext(r.Context()), limit)
		if err != nil {
			slog.Error("handlers.commands.list_failed",
				"component", "handlers",
				"event", "commands.list_error",
				"error", err,
			)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		entries := make([]CommandLogEntry, 0, len(logs))
		for _, l := range logs {
			entries = append(entries, CommandLogEntry{
				ConnectionID: l.ConnectionID,
				RemoteAddr:   l.RemoteAddr,
				LED:          l.LED,
				Blink:        l.Blink,
				At:           l.CreatedAt.UTC().Format(time.RFC3339),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}
