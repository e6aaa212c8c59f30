package web

import (
	"net"
	"net/http"
)

// clientIP returns the client address without its port. RemoteAddr has been
// rewritten by TrustedRealIP when the request came through a trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
