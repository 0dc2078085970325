package server

import (
	"net/http"
)

// securityHeadersMiddleware sets response headers for an API that serves
// JSON (and the healthz text) to browsers and devices, never HTML.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		// Strict-Transport-Security: max-age=2 years
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")

		// responses are JSON or plain text, never sniffable documents
		h.Set("X-Content-Type-Options", "nosniff")

		// there is no UI here to embed or frame
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// query strings carry device IDs, keep them out of referrers
		h.Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}
