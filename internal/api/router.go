package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bcnelson/pkg-groups/internal/api/handler"
	"github.com/bcnelson/pkg-groups/internal/api/middleware"
	"github.com/bcnelson/pkg-groups/internal/auth"
	"github.com/bcnelson/pkg-groups/internal/metrics"
	"github.com/bcnelson/pkg-groups/internal/service"
)

// Options holds the dependencies of the router.
type Options struct {
	Service *service.GroupService
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// APIKeys are the static bearer keys.
	APIKeys *auth.KeySet
	// Verifier accepts OIDC ID tokens as bearer tokens. Optional.
	Verifier auth.TokenVerifier
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	svc := opts.Service

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger.Named("http")))
	r.Use(m.Middleware)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(opts.APIKeys, opts.Verifier, logger.Named("auth")))

		// Groups
		groupHandler := handler.NewGroupHandler(svc)
		r.Post("/groups", groupHandler.Create)
		r.Get("/groups", groupHandler.List)
		r.Get("/groups/{name}", groupHandler.Get)
		r.Put("/groups/{name}", groupHandler.Update)
		r.Delete("/groups/{name}", groupHandler.Delete)
		r.Post("/groups/{name}/packages", groupHandler.AddPackages)
		r.Delete("/groups/{name}/packages/{pkg}", groupHandler.RemovePackage)

		// Meta-groups
		metaHandler := handler.NewMetaHandler(svc)
		r.Post("/metas", metaHandler.Create)
		r.Get("/metas", metaHandler.List)
		r.Get("/metas/{name}", metaHandler.Get)
		r.Put("/metas/{name}", metaHandler.Update)
		r.Delete("/metas/{name}", metaHandler.Delete)
		r.Get("/metas/{name}/groups", metaHandler.Groups)

		// State and resolution
		stateHandler := handler.NewStateHandler(svc)
		r.Get("/state/{name}", stateHandler.Get)
		r.Put("/state/{name}", stateHandler.Set)
		r.Get("/packages/states", stateHandler.PackageStates)
		r.Get("/differences", stateHandler.Differences)

		// Registry apply
		applyHandler := handler.NewApplyHandler(svc)
		r.Post("/apply", applyHandler.Apply)
		r.Get("/apply/last", applyHandler.Last)

		// Whole-store record
		recordHandler := handler.NewRecordHandler(svc)
		r.Get("/record", recordHandler.Get)
		r.Put("/record", recordHandler.Put)

		// Event stream
		eventsHandler := handler.NewEventsHandler(svc, m, logger.Named("events"))
		r.Get("/events", eventsHandler.Stream)
	})

	return r
}
