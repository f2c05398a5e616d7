package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-watchlist/internal/config"
	"movie-watchlist/internal/handler"
	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Watchlist *handler.WatchlistHandler
	Audit     *handler.AuditHandler
	Docs      *handler.DocsHandler
	Health    *handler.HealthHandler
}

// New builds the HTTP surface. Every route except the public paths passes the
// request gate before routing reaches it.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	h Handlers,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(authMiddleware.Resolve)

	r.Get("/health", h.Health.Check)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/docs", h.Docs.SwaggerUI)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
			auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAdmin).Get("/admins", h.User.List)
			auth.With(authMiddleware.RequireAdmin).Get("/audit", h.Audit.List)
			auth.With(authMiddleware.RequireAdmin).Put("/users/{id}", h.User.Update)
			auth.With(authMiddleware.RequireAdmin).Delete("/{id}", h.User.Delete)
		})

		api.Route("/watchlist", func(wl chi.Router) {
			wl.Use(authMiddleware.RequireAuth)
			wl.Get("/", h.Watchlist.List)
			wl.Delete("/", h.Watchlist.RemoveBulk)
			wl.Get("/summary/all", h.Watchlist.Summary)
			wl.Post("/{movieId}", h.Watchlist.Add)
			wl.Put("/{movieId}", h.Watchlist.UpdateStatus)
			wl.Get("/{movieId}", h.Watchlist.Exists)
			wl.Delete("/{movieId}", h.Watchlist.Remove)
		})
	})

	return r
}
