package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:5000", "198.51.100.4"},
		{"ipv4 remote", nil, "192.0.2.1:4321", "192.0.2.1"},
		{"ipv6 remote", nil, "[::1]:4321", "::1"},
		{"no remote", nil, "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientIPFromRequest(req))
		})
	}
}

func TestClientMetadataStoresIP(t *testing.T) {
	var seen string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:80"
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "192.0.2.9", seen)
}
