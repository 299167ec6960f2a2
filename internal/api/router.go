package api

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	// RequestTimeout bounds every request. Zero disables the timeout.
	RequestTimeout time.Duration
	// RateLimit is requests per minute per client IP on /api. Zero disables it.
	RateLimit      int
	AllowedOrigins []string
}

func NewRouter(app *App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/", app.HomeHandler)
	r.Get("/recommend", app.RecommendPartialHandler)
	r.Get("/ping", PingHandler)
	r.Get("/healthz", app.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	staticFS, _ := fs.Sub(staticFiles, "static")
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))

	r.Route("/api", func(r chi.Router) {
		origins := opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}

		r.Get("/titles", app.TitlesHandler)
		r.Get("/recommendations", app.RecommendationsHandler)
	})

	return r
}
