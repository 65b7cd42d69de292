package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell-books/inkwell/internal/auth"
	"github.com/inkwell-books/inkwell/internal/authz"
	"github.com/inkwell-books/inkwell/internal/observability"
	"github.com/inkwell-books/inkwell/internal/orders"
	"github.com/inkwell-books/inkwell/internal/subscription"
	"github.com/inkwell-books/inkwell/internal/users"
	"github.com/inkwell-books/inkwell/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AuthMiddleware      auth.Middleware
	AuthzMiddleware     authz.Middleware
	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	SubscriptionHandler *subscription.Handler
	OrdersHandler       *orders.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Inkwell defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    params.AuthMiddleware,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/subscriptions", params.SubscriptionHandler.MountRoutes)
	r.Route("/orders", params.OrdersHandler.MountRoutes)

	if params.JobHandler != nil {
		r.Route("/jobs", func(jr chi.Router) {
			jr.Use(params.AuthzMiddleware.RequireRole(authz.RoleAdmin))
			params.JobHandler.MountRoutes(jr)
		})
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
