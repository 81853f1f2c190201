package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKeyClientIP struct{}

// ClientMetadata stores the caller's IP in the context for access logs.
// Apply it before request.Logger.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClientIP(r.Context(), ClientIPFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects a client IP into a context.
func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, contextKeyClientIP{}, clientIP)
}

// ClientIPFromRequest prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the connection's remote address.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
