package websocket

import (
	"net"
	"net/http"
	"strings"

	"pair-chat/domain"
)

// HeaderLocator enriches a connection from request headers set by the reverse proxy.
// Cloudflare style CF-IPCountry and CF-IPCity carry the geography.
type HeaderLocator struct{}

func (HeaderLocator) Locate(r *http.Request) domain.Enrichment {
	return domain.Enrichment{
		IP:        clientIP(r),
		Country:   r.Header.Get("CF-IPCountry"),
		City:      r.Header.Get("CF-IPCity"),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
