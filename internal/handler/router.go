package handler

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/observability"
	"github.com/hoclconnect/leads/internal/service"
)

var tracer = otel.Tracer("handler")

const readyTimeout = 2 * time.Second

// RouterConfig carries the HTTP-level settings that are not owned by a service.
type RouterConfig struct {
	AllowedOrigins []string
	OriginPattern  *regexp.Regexp

	LeadRateLimit  int
	LeadRateWindow time.Duration

	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []*net.IPNet
}

// NewRouter creates the HTTP router with all routes and middleware.
// API routes live under /api, the path the marketing site proxies.
func NewRouter(leadSvc *service.LeadService, authSvc *service.AuthService, cfg RouterConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(RealIP(cfg.TrustedProxies))
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins, cfg.OriginPattern))

	// --- Operational endpoints ---
	r.Get("/health", healthHandler())
	r.Get("/readyz", readyzHandler(leadSvc, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	limiter := NewRateLimiter(cfg.LeadRateLimit, cfg.LeadRateWindow)

	// --- API ---
	r.Route("/api", func(r chi.Router) {

		// =============================================
		// Lead intake (public)
		// POST /api/leads
		// =============================================
		r.With(limiter.Middleware(logger)).Post("/leads", createLeadHandler(leadSvc, logger))

		// =============================================
		// Admin token
		// POST /api/auth/token
		// =============================================
		r.Post("/auth/token", issueTokenHandler(authSvc, logger))

		// =============================================
		// Lead reads (admin)
		// GET /api/leads
		// GET /api/leads/{id}
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))
			r.Get("/leads", listLeadsHandler(leadSvc, logger))
			r.Get("/leads/{id}", getLeadHandler(leadSvc, logger))
		})
	})

	return r
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:  "ok",
			Message: "Server is running",
		})
	}
}

func readyzHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := leadSvc.Ready(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, domain.HealthStatus{
				Status:  "unavailable",
				Message: "store unreachable",
			})
			return
		}
		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "ready"})
	}
}
