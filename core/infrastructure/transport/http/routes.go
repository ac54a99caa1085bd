package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/dto"
	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/handlers"
	httpmiddleware "github.com/hyperterse/querycheck/core/infrastructure/transport/http/middleware"
)

// RouteOptions configures optional route behavior
type RouteOptions struct {
	Port        string
	RateLimiter httpmiddleware.RateLimiter
	RateLimit   int
	RateWindow  time.Duration
}

// RegisterRoutes registers all HTTP routes
func RegisterRoutes(r chi.Router, validationService interfaces.ValidationService, opts RouteOptions) {
	log := logging.New("routes")
	log.Infof("Registering HTTP routes")

	var routes []string

	r.Route("/api/search", func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(httpmiddleware.RateLimitByIP(opts.RateLimiter, opts.RateLimit, opts.RateWindow))
		}
		r.Post("/validate", handleValidate(validationService))
	})
	routes = append(routes, "POST /api/search/validate")

	// OpenAPI docs endpoint
	r.Get("/docs", handlers.GenerateOpenAPISpecHandler(fmt.Sprintf("http://localhost:%s", opts.Port)))
	routes = append(routes, "GET /docs")

	// Heartbeat endpoint for health checks
	r.Get("/heartbeat", handleHeartbeat)
	routes = append(routes, "GET /heartbeat")

	r.Handle("/metrics", promhttp.Handler())
	routes = append(routes, "GET /metrics")

	log.Infof("Routes registered: %d", len(routes))
	for _, route := range routes {
		log.Debugf("  %s", route)
	}
}

// handleHeartbeat handles heartbeat/health check requests
func handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	handlers.NewBaseHandler("handler").WriteSuccess(w, dto.HealthResponse{Success: true})
}
