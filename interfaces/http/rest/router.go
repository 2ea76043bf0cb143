package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"conceptmap/application/services"
	"conceptmap/interfaces/http/rest/handlers"
	"conceptmap/interfaces/http/rest/middleware"
	"conceptmap/pkg/auth"
	pkgerrors "conceptmap/pkg/errors"
	"conceptmap/pkg/observability"
)

// Options tunes the router per deployment
type Options struct {
	Auth           middleware.AuthConfig
	EnableCORS     bool
	AllowedOrigins []string
	Checks         map[string]handlers.ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	service   *services.EditorService
	validator *auth.JWTValidator
	metrics   *observability.Collector
	tracer    *observability.Tracer
	errs      *pkgerrors.ErrorHandler
	opts      Options
	logger    *zap.Logger
}

// NewRouter creates a new router instance. validator may be nil when auth
// is disabled or delegated to API Gateway; metrics and tracer may be nil.
func NewRouter(
	service *services.EditorService,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	errs *pkgerrors.ErrorHandler,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		service:   service,
		validator: validator,
		metrics:   metrics,
		tracer:    tracer,
		errs:      errs,
		opts:      opts,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errs.Middleware)
	router.Use(middleware.Logger(rt.logger, rt.metrics))
	if rt.tracer != nil {
		router.Use(rt.tracer.Middleware)
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Request-ID"},
			ExposedHeaders:   []string{"ETag", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	health := handlers.NewHealthHandler(rt.opts.Checks, rt.logger)
	router.Get("/health", health.Health)
	router.Get("/ready", health.Ready)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.opts.Auth, rt.errs, rt.logger))

		maps := handlers.NewMapHandler(rt.service, rt.errs, rt.logger)
		nodes := handlers.NewNodeHandler(rt.service, rt.errs, rt.logger)
		edges := handlers.NewEdgeHandler(rt.service, rt.errs, rt.logger)
		drag := handlers.NewDragHandler(rt.service, rt.errs, rt.logger)
		edit := handlers.NewEditHandler(rt.service, rt.errs, rt.logger)
		conns := handlers.NewConnectionHandler(rt.service, rt.errs, rt.logger)

		r.Get("/maps", maps.ListMaps)
		r.Route("/maps/{mapID}", func(r chi.Router) {
			r.Get("/", maps.GetMap)
			r.Put("/", maps.ReplaceMap)
			r.Post("/save", maps.SaveMap)
			r.Post("/reload", maps.ReloadMap)

			r.Post("/nodes", nodes.CreateNode)
			r.Delete("/nodes/{nodeID}", nodes.DeleteNode)

			r.Post("/edges", edges.CreateEdge)
			r.Delete("/edges/{edgeID}", edges.DeleteEdge)

			r.Route("/drag", func(r chi.Router) {
				r.Post("/start", drag.Start)
				r.Post("/move", drag.Move)
				r.Post("/stop", drag.Stop)
				r.Post("/abort", drag.Abort)
			})

			r.Route("/edit", func(r chi.Router) {
				r.Post("/open", edit.Open)
				r.Post("/field", edit.SetField)
				r.Post("/save", edit.Save)
				r.Post("/cancel", edit.Cancel)
			})

			r.Post("/connections", conns.Register)
			r.Delete("/connections/{connectionID}", conns.Unregister)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		rt.errs.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}
