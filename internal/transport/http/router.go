package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campus/internal/platform/metrics"
	"campus/internal/platform/tracing"
	"campus/pkg/platform/httputil"
	authmw "campus/pkg/platform/middleware/auth"
	"campus/pkg/platform/middleware/metadata"
	request "campus/pkg/platform/middleware/request"
	"campus/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a bounded context's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig lists everything the router wires together.
type RouterConfig struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	// Validator enables bearer auth on API routes when set.
	Validator    authmw.JWTValidator
	HealthChecks map[string]HealthCheck
	APIs         []Registrar
}

// NewRouter builds the chi router: shared middleware, operational endpoints
// and the API routes of every registrar.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Recovery(cfg.Logger))
	r.Use(requesttime.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(tracing.Middleware(nil))

	r.Get("/healthz", healthHandler(cfg.HealthChecks, cfg.Logger))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if cfg.Validator != nil {
			r.Use(authmw.RequireAuth(cfg.Validator, cfg.Logger))
		}
		for _, api := range cfg.APIs {
			api.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"request_id", request.GetRequestID(ctx),
					"dependency", name,
					"error", err,
				)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": results})
	}
}
