package middleware

import "net/http"

var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Permissions-Policy":        "geolocation=(), microphone=(), camera=()",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload",
}

// SecurityHeaders adds the defensive headers to every response and removes
// headers that identify the server software.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, value := range securityHeaders {
			w.Header().Set(name, value)
		}
		next.ServeHTTP(&headerStripper{ResponseWriter: w}, r)
	})
}

type headerStripper struct {
	http.ResponseWriter
	wroteHeader bool
}

func (h *headerStripper) WriteHeader(status int) {
	if !h.wroteHeader {
		h.wroteHeader = true
		h.Header().Del("Server")
		h.Header().Del("X-Powered-By")
	}
	h.ResponseWriter.WriteHeader(status)
}

func (h *headerStripper) Write(b []byte) (int, error) {
	if !h.wroteHeader {
		h.WriteHeader(http.StatusOK)
	}
	return h.ResponseWriter.Write(b)
}

func (h *headerStripper) Unwrap() http.ResponseWriter {
	return h.ResponseWriter
}
