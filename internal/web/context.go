package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/workbook-migrate/internal/core"
)

// withRequestMetadata records who sent r for the run log.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithRequester(ctx, core.Requester{IP: clientIP(r), UserAgent: r.UserAgent()})
}

// clientIP returns r.RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
