package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the originating client IP for a request, preferring
// the first entry of X-Forwarded-For, then X-Real-IP, then the
// connection's remote address with any port stripped.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
