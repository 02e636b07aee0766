// Package pipeline orchestrates chunked speech synthesis: segmentation,
// per-chunk emotion resolution, scheduled backend calls, assembly, caching,
// and guaranteed temporary-file cleanup.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/backend"
	"github.com/tallo-speech/tallo-go/internal/cache"
	"github.com/tallo-speech/tallo-go/internal/config"
	"github.com/tallo-speech/tallo-go/internal/emotion"
	"github.com/tallo-speech/tallo-go/internal/scheduler"
	"github.com/tallo-speech/tallo-go/internal/segment"
	"github.com/tallo-speech/tallo-go/internal/schema"
	"github.com/tallo-speech/tallo-go/internal/speaker"
	"github.com/tallo-speech/tallo-go/internal/store"
)

// ErrInvalidRequest wraps input-validation failures detected before any
// synthesis work begins.
var ErrInvalidRequest = errors.New("pipeline: invalid request")

// ErrAssetNotFound indicates the named text asset does not exist.
var ErrAssetNotFound = errors.New("pipeline: text asset not found")

// Pipeline wires the segmenter, emotion resolver, scheduler, assembler, and
// cache manager behind one entry point. All collaborators are injected so
// tests can substitute fakes per component.
type Pipeline struct {
	backend       backend.Backend
	speakers      *speaker.Registry
	cache         *cache.Manager
	pool          *scheduler.Pool
	chunkDefault  int
	outputDir     string
	assetDir      string
	maxTextLength int
	logger        zerolog.Logger
}

// New constructs a pipeline from configuration. The worker pool is sized by
// hardware class unless explicitly overridden.
func New(be backend.Backend, speakers *speaker.Registry, cm *cache.Manager, cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	if err := os.MkdirAll(cfg.Storage.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	workers := scheduler.PoolSize(cfg.Backend.Accelerator, cfg.Pipeline.Workers)

	return &Pipeline{
		backend:       be,
		speakers:      speakers,
		cache:         cm,
		pool:          scheduler.NewPool(workers),
		chunkDefault:  cfg.Pipeline.ChunkSentences,
		outputDir:     cfg.Storage.OutputDir,
		assetDir:      cfg.Storage.AssetDir,
		maxTextLength: cfg.Limits.MaxTextLength,
		logger:        logger,
	}, nil
}

// Result is one finished synthesis. Cleanup removes every temporary file
// registered during the request and must be called after the response has
// been delivered; the pipeline calls it itself on every failure path. Keep
// detaches the final artifact from cleanup so callers can hand out a durable
// file reference.
type Result struct {
	Path     string
	Artifact *audio.Artifact
	Chunks   int
	Cleanup  func()
	Keep     func()
}

// Synthesize turns a request into a single playable artifact. Short text
// goes through one backend call; long text fans out across the worker pool
// and is re-assembled in chunk order.
func (p *Pipeline) Synthesize(ctx context.Context, req *schema.SynthesisRequest) (res *Result, err error) {
	// Server-level chunk size applies when the request leaves it unset.
	if req.ChunkSentences == 0 {
		req.ChunkSentences = p.chunkDefault
	}
	if verr := req.Validate(p.maxTextLength); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, verr)
	}

	text, err := p.resolveText(req)
	if err != nil {
		return nil, err
	}

	sentences := segment.Sentences(text)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("%w: no usable sentences in text", ErrInvalidRequest)
	}

	// Unknown speakers are rejected before any synthesis is attempted; this
	// also warms the shared embedding.
	embedding, err := p.speakers.Embedding(ctx, req.SpeakerID)
	if err != nil {
		return nil, err
	}

	tracker := cache.NewTracker(p.logger)
	defer func() {
		if err != nil {
			tracker.Cleanup()
		}
	}()

	var merged *audio.Artifact
	var chunkCount int

	if segment.IsLong(sentences) {
		merged, chunkCount, err = p.synthesizeLong(ctx, req, sentences, embedding, tracker)
	} else {
		merged, chunkCount, err = p.synthesizeShort(ctx, req, text, embedding)
	}
	if err != nil {
		return nil, err
	}

	finalPath := filepath.Join(p.outputDir, uuid.NewString()+".wav")
	if err = audio.WriteWAVFile(merged, finalPath); err != nil {
		return nil, fmt.Errorf("write final artifact: %w", err)
	}
	tracker.Register(finalPath)

	p.logger.Info().
		Str("speaker_id", req.SpeakerID).
		Int("chunks", chunkCount).
		Float64("duration_sec", merged.Duration()).
		Msg("Synthesis complete")

	return &Result{
		Path:     finalPath,
		Artifact: merged,
		Chunks:   chunkCount,
		Cleanup:  tracker.Cleanup,
		Keep:     func() { tracker.Forget(finalPath) },
	}, nil
}

func (p *Pipeline) synthesizeShort(ctx context.Context, req *schema.SynthesisRequest, text string, embedding []byte) (*audio.Artifact, int, error) {
	vec := emotion.Resolve(req.ResolvedEmotion(), req.AutoEmotion, text)

	if req.ContentID != "" {
		key := store.CacheKey{SpeakerID: req.SpeakerID, ContentID: req.ContentID, ChunkIndex: 0}
		if path, ok := p.cache.Lookup(ctx, key); ok {
			artifact, err := audio.ReadWAVFile(path)
			if err == nil {
				return artifact, 1, nil
			}
			p.logger.Warn().Err(err).Str("path", path).Msg("Cached artifact unreadable, re-synthesizing")
		}
	}

	artifact, err := p.callBackend(ctx, req, text, embedding, vec)
	if err != nil {
		return nil, 0, err
	}

	if req.ContentID != "" {
		p.promote(ctx, store.CacheKey{SpeakerID: req.SpeakerID, ContentID: req.ContentID, ChunkIndex: 0}, artifact)
	}

	return artifact, 1, nil
}

func (p *Pipeline) synthesizeLong(ctx context.Context, req *schema.SynthesisRequest, sentences []string, embedding []byte, tracker *cache.Tracker) (*audio.Artifact, int, error) {
	chunks := segment.Chunks(sentences, req.ChunkSentences)

	explicit := req.ResolvedEmotion()
	jobs := make([]scheduler.Job, len(chunks))
	for i, c := range chunks {
		// Auto-detection runs per chunk, so tone may legitimately vary
		// across one request.
		jobs[i] = scheduler.Job{
			Index:   c.Index,
			Text:    c.Text,
			Emotion: emotion.Resolve(explicit, req.AutoEmotion, c.Text),
		}
	}

	synth := func(ctx context.Context, job scheduler.Job) (*audio.Artifact, error) {
		if req.ContentID != "" {
			key := store.CacheKey{SpeakerID: req.SpeakerID, ContentID: req.ContentID, ChunkIndex: job.Index}
			if path, ok := p.cache.Lookup(ctx, key); ok {
				return audio.ReadWAVFile(path)
			}
		}

		artifact, err := p.callBackend(ctx, req, job.Text, embedding, job.Emotion)
		if err != nil {
			return nil, err
		}

		if req.ContentID != "" {
			p.promote(ctx, store.CacheKey{SpeakerID: req.SpeakerID, ContentID: req.ContentID, ChunkIndex: job.Index}, artifact)
			return artifact, nil
		}

		// Per-chunk intermediate, removed with the rest of the request's
		// temp files.
		chunkPath := filepath.Join(p.outputDir, fmt.Sprintf("chunk_%s_%d.wav", uuid.NewString(), job.Index))
		if err := audio.WriteWAVFile(artifact, chunkPath); err != nil {
			return nil, fmt.Errorf("write chunk intermediate: %w", err)
		}
		tracker.Register(chunkPath)

		return artifact, nil
	}

	artifacts, err := p.pool.Run(ctx, jobs, synth)
	if err != nil {
		return nil, 0, err
	}

	merged, err := audio.Merge(artifacts)
	if err != nil {
		return nil, 0, err
	}

	return merged, len(chunks), nil
}

func (p *Pipeline) callBackend(ctx context.Context, req *schema.SynthesisRequest, text string, embedding []byte, vec emotion.Vector) (*audio.Artifact, error) {
	return p.backend.Synthesize(ctx, &schema.ServeSynthesisRequest{
		Text:             text,
		SpeakerEmbedding: embedding,
		Language:         req.Language,
		SpeakingRate:     req.SpeakingRate,
		PitchVariance:    req.PitchVariance,
		Emotion:          vec,
	})
}

// promote registers an artifact in the cache. Caching is a best-effort
// optimization: failures are logged and the synthesis result still flows to
// the caller.
func (p *Pipeline) promote(ctx context.Context, key store.CacheKey, artifact *audio.Artifact) {
	if _, err := p.cache.Promote(ctx, key, artifact); err != nil {
		p.logger.Warn().Err(err).
			Str("speaker_id", key.SpeakerID).
			Str("content_id", key.ContentID).
			Int("chunk_index", key.ChunkIndex).
			Msg("Cache write failed, continuing without cache")
	}
}

func (p *Pipeline) resolveText(req *schema.SynthesisRequest) (string, error) {
	if strings.TrimSpace(req.Text) != "" {
		return req.Text, nil
	}

	assetPath := filepath.Join(p.assetDir, filepath.Base(req.TextAsset))
	data, err := os.ReadFile(assetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrAssetNotFound, req.TextAsset)
		}
		return "", fmt.Errorf("read text asset %s: %w", req.TextAsset, err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w: text asset %s is empty", ErrInvalidRequest, req.TextAsset)
	}

	return string(data), nil
}
