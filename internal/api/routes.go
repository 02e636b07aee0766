package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tallo-speech/tallo-go/internal/backend"
	"github.com/tallo-speech/tallo-go/internal/config"
	"github.com/tallo-speech/tallo-go/internal/pipeline"
	"github.com/tallo-speech/tallo-go/internal/speaker"
)

// NewRouter constructs the HTTP router with middleware and routes.
func NewRouter(cfg *config.Config, p *pipeline.Pipeline, speakers *speaker.Registry, be backend.Backend, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(CORSMiddleware)
	if cfg.Auth.APIKey != "" {
		r.Use(AuthMiddleware(cfg.Auth.APIKey))
	}

	h := NewHandler(p, speakers, be, cfg, logger)

	r.Get("/v1/health", h.HandleHealthGet)
	r.Post("/v1/health", h.HandleHealthPost)

	r.Post("/v1/tts", h.HandleSynthesize)
	r.Post("/v1/tts/batch", h.HandleBatch)

	r.Post("/v1/speakers", h.HandleCreateSpeaker)
	r.Get("/v1/speakers", h.HandleListSpeakers)
	r.Get("/v1/speakers/{id}", h.HandleGetSpeaker)
	r.Delete("/v1/speakers/{id}", h.HandleDeleteSpeaker)

	r.Post("/v1/contents/{id}/pregenerate", h.HandlePregenerate)

	r.Get("/v1/outputs/{filename}", h.HandleGetOutput)
	r.Get("/v1/cache/{speaker}/{filename}", h.HandleGetCached)

	return r
}
