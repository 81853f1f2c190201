package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/schedules/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/schedules/a", "/schedules/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/schedules/{id}", "404")))
	assert.Equal(t, 1, promtestutil.CollectAndCount(m.RequestDuration.WithLabelValues("GET", "/schedules/{id}").(prometheus.Histogram)))
	assert.Equal(t, 0.0, promtestutil.ToFloat64(m.InFlight))
}
