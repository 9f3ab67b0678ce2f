// Package httpapi assembles the public HTTP surface: middleware chain,
// application routes, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"grantapp/internal/application/handler"
	"grantapp/internal/platform/metrics"
	"grantapp/internal/platform/middleware"
	"grantapp/internal/platform/ratelimit"
	"grantapp/pkg/platform/httputil"
	"grantapp/pkg/platform/middleware/metadata"
	"grantapp/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators NewRouter wires. RateLimit and Metrics may be nil.
type Deps struct {
	Logger         *slog.Logger
	Applications   *handler.Handler
	RateLimit      *ratelimit.Middleware
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Health         map[string]Pinger
	AllowedOrigins []string
	MaxBodyBytes   int64
	TrustProxy     bool
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Recovery(d.Logger),
		metadata.ClientMetadata(d.TrustProxy),
		requesttime.Middleware,
		middleware.Logger(d.Logger),
		middleware.Latency(d.Metrics),
		cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
			ExposedHeaders: []string{middleware.HeaderRequestID, "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			MaxAge:         300,
		}),
	)

	r.Get("/healthz", healthz(d.Health))
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	submit := []func(http.Handler) http.Handler{middleware.BodyLimit(d.MaxBodyBytes)}
	if d.RateLimit != nil {
		submit = append([]func(http.Handler) http.Handler{d.RateLimit.Submissions}, submit...)
	}
	d.Applications.Register(r, submit...)

	return otelhttp.NewHandler(r, "grantapp.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthz(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(deps))}
		code := http.StatusOK
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = httputil.StatusError
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, code, resp)
	}
}
