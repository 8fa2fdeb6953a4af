package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"qsar-llm-backend/internal/handlers"
	"qsar-llm-backend/internal/middleware"
)

type Handlers struct {
	Status  *handlers.StatusHandler
	Chat    *handlers.ChatHandler
	Toolbox *handlers.ToolboxHandler
	PubChem *handlers.PubChemHandler
	Static  *handlers.StaticHandler
}

type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
}

func New(h Handlers, jwtAuth *middleware.JWTAuth, opts Options, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	chatLimiter := middleware.NewRateLimiter(opts.RateLimitPerMinute, time.Minute)

	r.Get("/", h.Static.Index)
	r.Get("/health", h.Status.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.Status.Status)
		r.Get("/pubchem", h.PubChem.Lookup)
		r.Get("/toolbox/health", h.Toolbox.Health)

		// ──── Protected when JWT_SECRET is set ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.With(chatLimiter.Middleware).Post("/chat", h.Chat.Chat)

			r.Get("/toolbox/search", h.Toolbox.Search)
			r.Post("/toolbox/profile", h.Toolbox.Profile)
			r.Post("/toolbox/category", h.Toolbox.Category)
		})
	})

	return r
}
