package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const clientIPContextKey contextKey = "client_ip"

// ClientIP resolves the caller's address once per request. X-Forwarded-For
// and X-Real-IP are honoured only when the direct peer is one of trusted;
// otherwise anyone could pick the address the rate limiter keys on.
func ClientIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPContextKey, ip)))
		})
	}
}

// ClientIPFromRequest returns the address resolved by ClientIP, or the
// peer address when that middleware did not run.
func ClientIPFromRequest(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPContextKey).(string); ok && ip != "" {
		return ip
	}
	return peerIP(r)
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := peerIP(r)
	if !isTrusted(peer, trusted) {
		return peer
	}

	// Walk right to left: the last hop not run by us is the client.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if !isTrusted(hop, trusted) || i == 0 {
				return hop
			}
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if _, err := netip.ParseAddr(realIP); err == nil {
			return realIP
		}
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func peerIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}
