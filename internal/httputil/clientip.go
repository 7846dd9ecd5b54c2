package httputil

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP resolves the originating client address for logging.
// Proxy headers win over the socket address: X-Forwarded-For carries the
// original client as its first entry, X-Real-IP is set by single-hop
// proxies, and RemoteAddr is the last resort.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests
		return r.RemoteAddr
	}
	return host
}
