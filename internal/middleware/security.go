package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersMiddleware adds security headers to simulator responses.
// Pages may load the simulator's own script and stylesheet, open the
// WebSocket and post the config form back to the simulator. Nothing may be
// framed or cached.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	csp := strings.Join([]string{
		"default-src 'none'",
		"script-src 'self'",
		"style-src 'self'",
		"connect-src 'self'",
		"base-uri 'none'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking by disallowing embedding in frames
		w.Header().Set("X-Frame-Options", "DENY")

		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", csp)

		// Status and uptime change every tick
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
