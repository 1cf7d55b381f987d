package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/metrics"
	"github.com/tasktrack/tasktrack/internal/middleware"
	"github.com/tasktrack/tasktrack/internal/service"
)

// URL parameters.
const (
	paramProjectID = "projectId"
	paramTaskID    = "id"
)

// RouterConfig wires the services behind the HTTP API.
type RouterConfig struct {
	Logger   *slog.Logger
	Projects *service.ProjectService
	Tasks    *service.TaskService
	Sessions *service.SessionService
	Users    *service.UserService
	Resolver *auth.Resolver

	// Database and Cache are checked by /readyz. Either may be nil.
	Database HealthChecker
	Cache    HealthChecker
	Metrics  metrics.Snapshotter

	Security        middleware.SecurityConfig
	CORS            middleware.CORSConfig
	MinAuthDuration time.Duration
}

// NewRouter builds the application router. API routes are served both at the
// root and under /api.
func NewRouter(cfg RouterConfig) http.Handler {
	h := New()
	health := NewHealthHandler(cfg.Database, cfg.Cache)

	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Security.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))
	}

	r.Get("/", h.Hello)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/metrics", NewMetricsHandler(cfg.Metrics).Metrics)

	api := apiRoutes(cfg)
	api(r)
	r.Route("/api", api)

	return r
}

func apiRoutes(cfg RouterConfig) func(chi.Router) {
	projects := NewProjectHandler(cfg.Projects)
	tasks := NewTaskHandler(cfg.Tasks)
	sessions := NewSessionHandler(cfg.Sessions)
	users := NewUserHandler(cfg.Users)
	requireAuth := middleware.Auth(middleware.AuthConfig{
		Resolver:    cfg.Resolver,
		MinDuration: cfg.MinAuthDuration,
	})

	return func(r chi.Router) {
		r.Post("/users", users.Register)
		r.Post("/sessions", sessions.SignIn)
		r.Post("/users/sign_in", sessions.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Delete("/sessions", sessions.SignOut)
			r.Delete("/users/sign_out", sessions.SignOut)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projects.List)
				r.Post("/", projects.Create)

				r.Route("/{"+paramProjectID+"}", func(r chi.Router) {
					r.Get("/", projects.Get)
					r.Patch("/", projects.Update)
					r.Put("/", projects.Update)
					r.Delete("/", projects.Delete)

					r.Route("/tasks", func(r chi.Router) {
						r.Get("/", tasks.List)
						r.Post("/", tasks.Create)
						r.Get("/{"+paramTaskID+"}", tasks.Get)
						r.Patch("/{"+paramTaskID+"}", tasks.Update)
						r.Put("/{"+paramTaskID+"}", tasks.Update)
						r.Delete("/{"+paramTaskID+"}", tasks.Delete)
					})
				})
			})
		})
	}
}
