package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP from the request. Proxy headers are
// spoofable by the caller, so they are consulted only when trustProxy is set,
// meaning the service sits behind a proxy that overwrites them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			if len(ips) > 0 {
				clientIP := strings.TrimSpace(ips[0])
				if clientIP != "" {
					return clientIP
				}
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}

	return ip
}
