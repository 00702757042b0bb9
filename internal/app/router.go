package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/molecula-pos/molecula-pos/internal/auth"
	"github.com/molecula-pos/molecula-pos/internal/catalog/categories"
	"github.com/molecula-pos/molecula-pos/internal/catalog/products"
	"github.com/molecula-pos/molecula-pos/internal/observability"
	"github.com/molecula-pos/molecula-pos/internal/reporting"
	"github.com/molecula-pos/molecula-pos/internal/sales"
	"github.com/molecula-pos/molecula-pos/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthMiddleware    auth.Middleware
	AuthHandler       *auth.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	SalesHandler      *sales.Handler
	ReportingHandler  *reporting.Handler
	UsersHandler      *users.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Molecula defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)

			r.Route("/categories", params.CategoriesHandler.MountRoutes)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/sales", params.SalesHandler.MountRoutes)
			r.Route("/reports", params.ReportingHandler.MountRoutes)
			r.Route("/users", params.UsersHandler.MountRoutes)
		})
	})

	return r
}
