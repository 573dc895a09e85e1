package api

import (
	"context"
	"net/http"
	"time"

	"github.com/futig/rag-assistant/internal/api/docs"
	"github.com/futig/rag-assistant/internal/api/middleware"
	"github.com/futig/rag-assistant/internal/api/web"
	"github.com/futig/rag-assistant/internal/metrics"
	"github.com/futig/rag-assistant/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

// HealthChecker probes the processing backend
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(webHandler *web.Handler, backend HealthChecker, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)   // Recover from panics
	r.Use(chimiddleware.RequestID)   // Add request ID
	r.Use(middleware.Logger(logger)) // Log requests

	// Websocket connections live as long as the browser tab
	web.RegisterLiveRoutes(r, webHandler)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Get("/health", healthHandler(backend))
		r.Handle("/metrics", metrics.Handler())

		// Swagger documentation endpoints
		docs.RegisterRoutes(r)

		web.RegisterRoutes(r, webHandler)
	})

	return r
}

// healthHandler reports the reachability of the backend
func healthHandler(backend HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := backend.Ping(ctx); err != nil {
			ctxzap.Warn(ctx, "backend is unreachable", zap.Error(err))
			response.JSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "degraded",
				Backend: "unreachable",
				Error:   err.Error(),
			})
			return
		}

		response.Success(w, healthResponse{Status: "healthy", Backend: "reachable"})
	}
}
