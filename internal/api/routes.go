package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voicetriage/voicetriage/internal/config"
	"github.com/voicetriage/voicetriage/internal/pipeline"
	"github.com/voicetriage/voicetriage/internal/store"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(p *pipeline.Pipeline, recordStore store.Store, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(p, recordStore, config, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// Intake routes
	router.Post("/extract", r.handler.Extract)
	router.Post("/voice-webhook", r.handler.VoiceWebhook)
	router.Post("/recording-webhook", r.handler.RecordingWebhook)

	// Read routes
	router.Get("/messages", r.handler.GetMessages)
	router.Get("/stats", r.handler.GetStats)
	router.Get("/health", r.handler.GetHealth)

	// Serve the dashboard from the configured directory
	if dir := r.config.Server.StaticFilesDir; dir != "" {
		router.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	return router
}
