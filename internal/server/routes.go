package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger))
	r.Use(CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(staticFS())))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.Session)
		r.Get("/ws", h.Events)
		r.Get("/fields", h.Fields)
		r.Get("/presets", h.Presets)
		r.Post("/task", h.SelectTask)
		r.Post("/files", h.UploadFile)
		r.Get("/preview", h.Preview)
		r.Post("/process", h.Process)
		r.Post("/download", h.Download)
	})

	return r
}
