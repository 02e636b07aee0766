package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tallo-speech/tallo-go/internal/backend"
	"github.com/tallo-speech/tallo-go/internal/config"
	"github.com/tallo-speech/tallo-go/internal/pipeline"
	"github.com/tallo-speech/tallo-go/internal/schema"
	"github.com/tallo-speech/tallo-go/internal/speaker"
)

// Handler holds the collaborators every endpoint needs.
type Handler struct {
	pipeline *pipeline.Pipeline
	speakers *speaker.Registry
	backend  backend.Backend
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewHandler builds the endpoint handler set.
func NewHandler(p *pipeline.Pipeline, speakers *speaker.Registry, be backend.Backend, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{pipeline: p, speakers: speakers, backend: be, cfg: cfg, logger: logger}
}

// HandleHealthGet reports service and synthesis-backend health.
func (h *Handler) HandleHealthGet(w http.ResponseWriter, r *http.Request) {
	status := schema.HealthResponse{Status: "ok", Backend: "ok"}
	if err := h.backend.Health(r.Context()); err != nil {
		status.Backend = "unavailable"
	}
	WriteJSON(w, http.StatusOK, status)
}

// HandleHealthPost mirrors HandleHealthGet for clients that probe with POST.
func (h *Handler) HandleHealthPost(w http.ResponseWriter, r *http.Request) {
	h.HandleHealthGet(w, r)
}

// HandleSynthesize runs the full synthesis pipeline for one request. The
// response is inline WAV audio unless as_file was requested, in which case a
// durable file reference is returned instead.
func (h *Handler) HandleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req schema.SynthesisRequest
	if err := ParseRequestBody(r, &req); err != nil {
		writeParseError(w, err)
		return
	}

	res, err := h.pipeline.Synthesize(r.Context(), &req)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	if req.WantsFile() {
		res.Keep()
		res.Cleanup()
		filename := filepath.Base(res.Path)
		WriteJSON(w, http.StatusOK, schema.SynthesisResponse{
			File:        filename,
			AudioURL:    "/v1/outputs/" + filename,
			DurationSec: res.Artifact.Duration(),
			Chunks:      res.Chunks,
		})
		return
	}

	defer res.Cleanup()

	data, err := os.ReadFile(res.Path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", res.Path).Msg("Final artifact unreadable")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteAudio(w, data)
}

// HandleBatch synthesizes several texts for one speaker, collecting per-item
// errors instead of failing the whole call.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req schema.BatchSynthesisRequest
	if err := ParseRequestBody(r, &req); err != nil {
		writeParseError(w, err)
		return
	}

	resp, err := h.pipeline.Batch(r.Context(), &req)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleCreateSpeaker registers a speaker from reference audio. Accepts JSON
// and multipart bodies; multipart carries the audio as a file field.
func (h *Handler) HandleCreateSpeaker(w http.ResponseWriter, r *http.Request) {
	var req schema.CreateSpeakerRequest
	if err := ParseRequestBody(r, &req); err != nil {
		writeParseError(w, err)
		return
	}

	profile, err := h.speakers.Create(r.Context(), &req)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, schema.CreateSpeakerResponse{
		Success: true,
		Message: "speaker registered",
		Speaker: *profile,
	})
}

// HandleListSpeakers lists all registered speakers.
func (h *Handler) HandleListSpeakers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.speakers.List(r.Context())
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, schema.ListSpeakersResponse{Speakers: profiles, Total: len(profiles)})
}

// HandleGetSpeaker returns one speaker profile.
func (h *Handler) HandleGetSpeaker(w http.ResponseWriter, r *http.Request) {
	profile, err := h.speakers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// HandleDeleteSpeaker removes a speaker along with its embedding, reference
// audio, and cached chunks.
func (h *Handler) HandleDeleteSpeaker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.speakers.Delete(r.Context(), id); err != nil {
		h.writePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, schema.DeleteSpeakerResponse{
		Success:   true,
		Message:   "speaker deleted",
		SpeakerID: id,
	})
}

// HandlePregenerate warms the cache for every page of a content unit.
func (h *Handler) HandlePregenerate(w http.ResponseWriter, r *http.Request) {
	var req schema.PregenerateRequest
	if err := ParseRequestBody(r, &req); err != nil {
		writeParseError(w, err)
		return
	}

	resp, err := h.pipeline.Pregenerate(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleGetOutput serves a previously produced output file.
func (h *Handler) HandleGetOutput(w http.ResponseWriter, r *http.Request) {
	h.serveWAV(w, r, filepath.Join(h.cfg.Storage.OutputDir, filepath.Base(chi.URLParam(r, "filename"))))
}

// HandleGetCached serves a cached chunk for a speaker.
func (h *Handler) HandleGetCached(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.cfg.Storage.CacheDir,
		filepath.Base(chi.URLParam(r, "speaker")),
		filepath.Base(chi.URLParam(r, "filename")))
	h.serveWAV(w, r, path)
}

func (h *Handler) serveWAV(w http.ResponseWriter, r *http.Request, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			WriteError(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error().Err(err).Str("path", path).Msg("Failed to read audio file")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteAudio(w, data)
}

// writePipelineError maps domain errors onto HTTP status codes.
func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pipeline.ErrAssetNotFound),
		errors.Is(err, speaker.ErrUnknownSpeaker):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, speaker.ErrInvalidSpeaker):
		WriteError(w, http.StatusBadRequest, err.Error())
	case backend.IsBackendError(err),
		errors.Is(err, backend.ErrBackendUnavailable),
		errors.Is(err, backend.ErrBackendTimeout):
		h.logger.Error().Err(err).Msg("Synthesis backend failure")
		WriteError(w, http.StatusBadGateway, "Synthesis backend unavailable")
	default:
		h.logger.Error().Err(err).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeParseError(w http.ResponseWriter, err error) {
	if httpErr, ok := IsHTTPError(err); ok {
		WriteError(w, httpErr.Status, httpErr.Message)
		return
	}
	WriteError(w, http.StatusBadRequest, "Invalid request")
}
