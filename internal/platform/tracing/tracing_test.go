package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddlewarePassesThroughAndCarriesSpan(t *testing.T) {
	var sawSpan bool
	r := chi.NewRouter()
	r.Use(Middleware(nil))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, sawSpan)
}

func TestMiddlewareContinuesIncomingTrace(t *testing.T) {
	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	var traceID string
	h := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = trace.SpanContextFromContext(r.Context()).TraceID().String()
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", parent)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", traceID)
}
