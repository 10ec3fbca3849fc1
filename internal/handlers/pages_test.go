package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/m0rjc/DeviceChannel/internal/device"
	"github.com/m0rjc/DeviceChannel/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(h http.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/save_config", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCounterHandlers(t *testing.T) {
	deps, _ := newTestDeps(t)

	rec := httptest.NewRecorder()
	CounterHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/counter", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Body.String())

	rec = httptest.NewRecorder()
	CounterResetHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/counterReset", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ok", rec.Body.String())

	rec = httptest.NewRecorder()
	CounterResetHandler(deps)(rec, httptest.NewRequest(http.MethodPost, "/counterReset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusPageHandler(t *testing.T) {
	deps, _ := newTestDeps(t)

	rec := httptest.NewRecorder()
	StatusPageHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `id="cur_counter" value="0"`)
	assert.Contains(t, body, `id="mode" value="AP"`)
	assert.Contains(t, body, `id="ip" value="192.168.10.1"`)
}

func TestWebSocketPageHandler(t *testing.T) {
	deps, _ := newTestDeps(t)
	require.NoError(t, deps.Control.ApplyCommand(context.Background(), client("c"), websocket.DeviceCommand{LED: boolPtr(true)}))

	rec := httptest.NewRecorder()
	WebSocketPageHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/websocket", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span id="led">AN</span>`)
}

func TestConfigPageHandler_OmitsPasswords(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Control.SaveSettings(device.NetworkSettings{STASSID: "home", STAPassword: "hunter2"}, false)

	rec := httptest.NewRecorder()
	ConfigPageHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="home"`)
	assert.Contains(t, body, `value="ESP32-Setup"`)
	assert.NotContains(t, body, "hunter2")
	assert.NotContains(t, body, "admin")
}

func TestSaveConfigHandler(t *testing.T) {
	deps, _ := newTestDeps(t)
	h := SaveConfigHandler(deps)

	rec := postForm(h, url.Values{"sta_ssid": {"home"}, "sta_pass": {"pw"}, "ap_ssid": {""}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Configuration saved.", rec.Body.String())

	settings := deps.Control.Settings()
	assert.Equal(t, "home", settings.STASSID)
	assert.Equal(t, "pw", settings.STAPassword)
	assert.Equal(t, "ESP32-Setup", settings.APSSID, "empty field keeps the saved value")
	assert.Equal(t, device.ModeAP, deps.Control.Network().Mode, "mode waits for a restart")

	rec = postForm(h, url.Values{"ap_ssid": {"lab"}, "ap_reboot": {"on"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Configuration saved. Restarting in 2 seconds...", rec.Body.String())
	assert.Equal(t, "lab", deps.Control.Settings().APSSID)
	assert.Equal(t, "home", deps.Control.Settings().STASSID)
}

func TestSaveConfigHandler_RejectsGet(t *testing.T) {
	deps, _ := newTestDeps(t)

	rec := httptest.NewRecorder()
	SaveConfigHandler(deps)(rec, httptest.NewRequest(http.MethodGet, "/save_config?sta_ssid=x", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "", deps.Control.Settings().STASSID)
}

func TestSaveConfigHandler_RejectsOversizedForm(t *testing.T) {
	deps, _ := newTestDeps(t)

	rec := postForm(SaveConfigHandler(deps), url.Values{"sta_ssid": {strings.Repeat("x", maxConfigFormBytes)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "", deps.Control.Settings().STASSID)
}
