// Package rest wires the engagement REST API onto a chi router
package rest

import (
	"context"
	"net/http"
	"time"

	"linklist-backend/interfaces/http/rest/handlers"
	"linklist-backend/interfaces/http/rest/middleware"
	"linklist-backend/pkg/auth"
	"linklist-backend/pkg/common"
	pkgerrors "linklist-backend/pkg/errors"
	"linklist-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// APIVersion is reported in the X-API-Version header
const APIVersion = "v1"

// ReadinessCheck reports whether a dependency can serve traffic
type ReadinessCheck func(ctx context.Context) error

// RouterConfig holds the transport settings of the router
type RouterConfig struct {
	EnableCORS   bool
	AllowOrigins []string
	Auth         middleware.AuthConfig
}

// Router creates and configures the HTTP router
type Router struct {
	config        RouterConfig
	votes         *handlers.VoteHandler
	comments      *handlers.CommentHandler
	notifications *handlers.NotificationHandler
	websocket     http.Handler
	limiter       *auth.UserRateLimiter
	metrics       *observability.Collector
	errors        *pkgerrors.ErrorHandler
	readiness     []ReadinessCheck
	logger        *zap.Logger
}

// NewRouter creates a new router instance. websocket, limiter and metrics
// are optional.
func NewRouter(
	config RouterConfig,
	votes *handlers.VoteHandler,
	comments *handlers.CommentHandler,
	notifications *handlers.NotificationHandler,
	websocket http.Handler,
	limiter *auth.UserRateLimiter,
	metrics *observability.Collector,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		config:        config,
		votes:         votes,
		comments:      comments,
		notifications: notifications,
		websocket:     websocket,
		limiter:       limiter,
		metrics:       metrics,
		errors:        errorHandler,
		logger:        logger,
	}
}

// AddReadinessCheck registers a dependency consulted by /ready
func (rt *Router) AddReadinessCheck(check ReadinessCheck) {
	rt.readiness = append(rt.readiness, check)
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}
	router.Use(versionMiddleware)

	if rt.config.EnableCORS {
		origins := rt.config.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errors.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Ops
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	// The WebSocket endpoint authenticates during the upgrade itself
	if rt.websocket != nil {
		router.Get("/ws/notifications", rt.websocket.ServeHTTP)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.config.Auth, rt.logger))
		if rt.limiter != nil {
			r.Use(middleware.RateLimitWrites(rt.limiter, rt.logger))
		}

		r.Route("/entities/{entityType}/{entityId}", func(r chi.Router) {
			r.Put("/vote", rt.votes.Vote)
			r.Get("/votes", rt.votes.GetStats)
			r.Get("/votes/analytics", rt.votes.GetAnalytics)

			r.Post("/comments", rt.comments.AddComment)
			r.Get("/comments", rt.comments.GetComments)
		})

		r.Route("/comments/{commentId}", func(r chi.Router) {
			r.Post("/replies", rt.comments.AddReply)
			r.Put("/", rt.comments.EditComment)
			r.Delete("/", rt.comments.DeleteComment)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", rt.notifications.List)
			r.Get("/unread-count", rt.notifications.UnreadCount)
			r.Post("/read-all", rt.notifications.MarkAllRead)
			r.Post("/{id}/read", rt.notifications.MarkRead)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck runs every registered dependency check
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range rt.readiness {
		if err := check(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", APIVersion)
		next.ServeHTTP(w, r)
	})
}
