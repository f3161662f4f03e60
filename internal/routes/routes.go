package routes

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/handlers"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/middleware"
)

// Handlers groups the route handlers and the pieces of middleware that need
// application state.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Animals       *handlers.AnimalHandler
	Notifications *handlers.NotificationHandler
	Upload        *handlers.UploadHandler

	Authenticator middleware.Authenticator
	UploadLimits  middleware.UploadLimiters
}

// Options configures the outer middleware stack.
type Options struct {
	Logger         *slog.Logger
	CORS           *middleware.CORSPolicy
	Production     bool
	AllowedHost    string
	Limiters       middleware.Limiters
	RedisRateLimit *middleware.RedisRateLimit
	Metrics        middleware.RequestRecorder
	MetricsHandler http.Handler
	UploadDir      string
}

// NewRouter builds the full HTTP surface.
func NewRouter(h Handlers, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	if opts.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(middleware.RequestMetrics(opts.Metrics))
	}
	if opts.CORS != nil {
		r.Use(opts.CORS.Handler())
	}

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only, when Redis is configured
	if opts.Production {
		for _, mw := range middleware.ProductionSecurity(opts.AllowedHost, opts.Limiters) {
			r.Use(mw)
		}
	} else if opts.RedisRateLimit != nil {
		r.Use(opts.RedisRateLimit.Middleware)
	}

	r.Get("/", handlers.Root)
	r.Get("/healthz", handlers.Healthz)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	if opts.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", staticFiles(opts.UploadDir)))
	}

	r.Route("/api", func(r chi.Router) {
		SetupRoutes(r, h)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"message":"Not found"}`))
	})

	return r
}

// SetupRoutes registers the API routes on a router mounted at /api.
func SetupRoutes(r chi.Router, h Handlers) {
	requireAuth := middleware.RequireAuth(h.Authenticator)
	optionalAuth := middleware.OptionalAuth(h.Authenticator)

	// Credentials
	r.Post("/register", h.Auth.Register)
	r.Post("/login", h.Auth.Login)
	r.With(requireAuth).Get("/me", h.Auth.Me)

	// Listings: the caller is attached when present; the service decides
	// whether one is required
	r.Get("/animals", h.Animals.List)
	r.With(optionalAuth).Post("/animals", h.Animals.Create)
	r.With(optionalAuth).Delete("/animals/{id}", h.Animals.Delete)

	// Notifications
	r.With(requireAuth).Get("/notifications/me", h.Notifications.Me)
	r.With(requireAuth).Post("/notifications", h.Notifications.Create)
	r.With(requireAuth).Post("/notifications/mark-all-read", h.Notifications.MarkAllRead)
	r.Get("/notifications/ws", h.Notifications.Stream)

	// Media
	upload := []func(http.Handler) http.Handler{optionalAuth}
	if h.UploadLimits.Auth != nil && h.UploadLimits.Anon != nil {
		upload = append([]func(http.Handler) http.Handler{middleware.UploadRateLimit(h.UploadLimits)}, upload...)
	}
	r.With(upload...).Post("/upload", h.Upload.Upload)
}

// staticFiles serves uploaded media verbatim without directory listings.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fs.ServeHTTP(w, r)
	})
}
