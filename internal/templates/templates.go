// Package templates renders the device's HTML pages and serves the script
// and stylesheet they load.
package templates

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed *.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates *template.Template

func init() {
	var err error
	templates, err = template.New("").ParseFS(templateFS, "*.html")
	if err != nil {
		panic(err)
	}
}

// Render executes a page template inside base.html and writes it to w.
func Render(w io.Writer, name string, data any) error {
	// Clone so concurrent renders do not share the bridge definition
	t, err := templates.Clone()
	if err != nil {
		return err
	}

	templateName := strings.TrimSuffix(name, ".html")

	// base.html calls {{template "content" .}}; point it at the page
	bridge := `{{define "content"}}{{template "` + templateName + `" .}}{{end}}`
	t, err = t.New("bridge").Parse(bridge)
	if err != nil {
		return err
	}

	return t.ExecuteTemplate(w, "base.html", data)
}

// StaticHandler serves script.js and style.css.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// StatusPageData is the data for the status page
type StatusPageData struct {
	Title    string
	Counter  int64
	Uptime   int64
	Mode     string
	SSID     string
	IP       string
	Subnet   string
	FreeHeap uint64
}

// WebSocketPageData is the data for the LED control page
type WebSocketPageData struct {
	Title  string
	Uptime int64
	LED    bool
}

// ConfigPageData is the data for the network configuration page
type ConfigPageData struct {
	Title   string
	STASSID string
	APSSID  string
	Mode    string
	IP      string
	Subnet  string
}

// RenderStatus renders the status page
func RenderStatus(w io.Writer, data StatusPageData) error {
	data.Title = "Status"
	return Render(w, "status.html", data)
}

// RenderWebSocket renders the LED control page
func RenderWebSocket(w io.Writer, data WebSocketPageData) error {
	data.Title = "WebSocket"
	return Render(w, "websocket.html", data)
}

// RenderConfig renders the network configuration form
func RenderConfig(w io.Writer, data ConfigPageData) error {
	data.Title = "Configuration"
	return Render(w, "config.html", data)
}
