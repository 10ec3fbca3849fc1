package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/m0rjc/DeviceChannel/internal/device"
	"github.com/m0rjc/DeviceChannel/internal/services/devicecontrol"
	"github.com/m0rjc/DeviceChannel/internal/templates"
)

const maxConfigFormBytes = 8 << 10

// StatusPageHandler renders the HTML status page.
func StatusPageHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state := deps.Control.Status()
		network := deps.Control.Network()
		renderPage(w, "status", func(w io.Writer) error {
			return templates.RenderStatus(w, templates.StatusPageData{
				Counter:  state.Counter,
				Uptime:   state.UptimeSeconds(),
				Mode:     network.Mode,
				SSID:     network.SSID,
				IP:       network.IP,
				Subnet:   network.Subnet,
				FreeHeap: freeHeap(),
			})
		})
	}
}

// WebSocketPageHandler renders the LED control page, which talks to /ws.
func WebSocketPageHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state := deps.Control.Status()
		renderPage(w, "websocket", func(w io.Writer) error {
			return templates.RenderWebSocket(w, templates.WebSocketPageData{
				Uptime: state.UptimeSeconds(),
				LED:    state.LED,
			})
		})
	}
}

// ConfigPageHandler renders the network configuration form. Passwords are
// never sent back to the browser.
func ConfigPageHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		settings := deps.Control.Settings()
		network := deps.Control.Network()
		staSSID := settings.STASSID
		if network.Mode == device.ModeSTA {
			staSSID = network.SSID
		}
		renderPage(w, "config", func(w io.Writer) error {
			return templates.RenderConfig(w, templates.ConfigPageData{
				STASSID: staSSID,
				APSSID:  settings.APSSID,
				Mode:    network.Mode,
				IP:      network.IP,
				Subnet:  network.Subnet,
			})
		})
	}
}

// SaveConfigHandler stores the submitted network settings in memory. Empty
// fields keep their saved value. Ticking either restart box schedules a
// restart shortly after the response.
func SaveConfigHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxConfigFormBytes)
		if err := r.ParseForm(); err != nil {
			slog.Warn("handlers.save_config.bad_form",
				"component", "handlers",
				"event", "save_config.bad_form",
				"error", err,
			)
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		update := device.NetworkSettings{
			STASSID:     r.PostForm.Get("sta_ssid"),
			STAPassword: r.PostForm.Get("sta_pass"),
			APSSID:      r.PostForm.Get("ap_ssid"),
			APPassword:  r.PostForm.Get("ap_pass"),
		}
		restart := r.PostForm.Get("sta_reboot") == "on" || r.PostForm.Get("ap_reboot") == "on"

		msg := "Configuration saved."
		if due := deps.Control.SaveSettings(update, restart); !due.IsZero() {
			msg += fmt.Sprintf(" Restarting in %d seconds...", int(devicecontrol.RestartDelay/time.Second))
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(msg))
	}
}

// renderPage renders into a buffer so a template error still produces a
// clean 500.
func renderPage(w http.ResponseWriter, page string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		slog.Error("handlers.page.render_failed",
			"component", "handlers",
			"event", "page.render_error",
			"page", page,
			"error", err,
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
