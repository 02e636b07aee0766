// Package speaker manages speaker identities: onboarding from reference
// audio, profile lookups, and the shared embedding cache.
package speaker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/tallo-speech/tallo-go/internal/backend"
	"github.com/tallo-speech/tallo-go/internal/cache"
	"github.com/tallo-speech/tallo-go/internal/schema"
	"github.com/tallo-speech/tallo-go/internal/store"
)

// ErrUnknownSpeaker indicates the referenced speaker does not exist.
var ErrUnknownSpeaker = errors.New("speaker: unknown speaker")

// ErrInvalidSpeaker indicates the onboarding request is missing required
// fields.
var ErrInvalidSpeaker = errors.New("speaker: invalid speaker request")

const embeddingCacheSize = 64

// Registry owns speaker profiles and their embeddings. Embeddings are
// extracted once at onboarding and shared read-only across requests.
type Registry struct {
	store      *store.Store
	backend    backend.Backend
	cache      *cache.Manager
	dir        string
	embeddings *lru.Cache[string, []byte]
	logger     zerolog.Logger
}

// NewRegistry creates a registry storing embeddings and reference audio
// under dir.
func NewRegistry(st *store.Store, be backend.Backend, cm *cache.Manager, dir string, logger zerolog.Logger) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create embedding dir: %w", err)
	}

	embeddings, err := lru.New[string, []byte](embeddingCacheSize)
	if err != nil {
		return nil, err
	}

	return &Registry{
		store:      st,
		backend:    be,
		cache:      cm,
		dir:        dir,
		embeddings: embeddings,
		logger:     logger,
	}, nil
}

func toProfile(rec *store.SpeakerRecord) schema.SpeakerProfile {
	return schema.SpeakerProfile{
		ID:             rec.ID,
		Name:           rec.Name,
		Description:    rec.Description,
		Language:       rec.Language,
		CreatedAt:      rec.CreatedAt.UTC().Format(time.RFC3339),
		ReferenceAudio: rec.ReferenceAudio,
	}
}

// Create onboards a new speaker: extracts the embedding from reference audio
// via the synthesis worker, persists both, and stores the profile.
func (r *Registry) Create(ctx context.Context, req *schema.CreateSpeakerRequest) (*schema.SpeakerProfile, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSpeaker)
	}
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("%w: reference audio is required", ErrInvalidSpeaker)
	}
	if req.Language == "" {
		req.Language = "ko"
	}

	embedResp, err := r.backend.Embed(ctx, &schema.ServeEmbedRequest{Audio: req.Audio})
	if err != nil {
		return nil, fmt.Errorf("extract speaker embedding: %w", err)
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	embeddingPath := filepath.Join(r.dir, id+".emb")
	if err := os.WriteFile(embeddingPath, embedResp.Embedding, 0o644); err != nil {
		return nil, fmt.Errorf("write embedding: %w", err)
	}

	referencePath := filepath.Join(r.dir, id+".ref.wav")
	if err := os.WriteFile(referencePath, req.Audio, 0o644); err != nil {
		os.Remove(embeddingPath)
		return nil, fmt.Errorf("write reference audio: %w", err)
	}

	rec := &store.SpeakerRecord{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		Language:       req.Language,
		CreatedAt:      time.Now(),
		ReferenceAudio: referencePath,
		EmbeddingPath:  embeddingPath,
	}
	if err := r.store.CreateSpeaker(ctx, rec); err != nil {
		os.Remove(embeddingPath)
		os.Remove(referencePath)
		return nil, err
	}

	r.embeddings.Add(id, embedResp.Embedding)

	profile := toProfile(rec)
	r.logger.Info().Str("speaker_id", id).Str("name", req.Name).Msg("Speaker created")
	return &profile, nil
}

// Get loads one speaker profile.
func (r *Registry) Get(ctx context.Context, id string) (*schema.SpeakerProfile, error) {
	rec, err := r.store.GetSpeaker(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownSpeaker
	}
	if err != nil {
		return nil, err
	}
	profile := toProfile(rec)
	return &profile, nil
}

// List returns all registered speakers.
func (r *Registry) List(ctx context.Context) ([]schema.SpeakerProfile, error) {
	recs, err := r.store.ListSpeakers(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]schema.SpeakerProfile, 0, len(recs))
	for i := range recs {
		profiles = append(profiles, toProfile(&recs[i]))
	}
	return profiles, nil
}

// Delete removes the speaker along with its embedding, reference audio, and
// every dependent cache entry.
func (r *Registry) Delete(ctx context.Context, id string) error {
	rec, err := r.store.GetSpeaker(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownSpeaker
	}
	if err != nil {
		return err
	}

	if err := r.cache.Evict(ctx, id); err != nil {
		return fmt.Errorf("evict cache for speaker %s: %w", id, err)
	}

	for _, p := range []string{rec.EmbeddingPath, rec.ReferenceAudio} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove speaker file")
		}
	}

	r.embeddings.Remove(id)

	if err := r.store.DeleteSpeaker(ctx, id); err != nil {
		return err
	}

	r.logger.Info().Str("speaker_id", id).Msg("Speaker deleted")
	return nil
}

// Embedding returns the speaker's opaque embedding, loading it from disk on
// first use and serving it from the in-process cache afterwards.
func (r *Registry) Embedding(ctx context.Context, id string) ([]byte, error) {
	if emb, ok := r.embeddings.Get(id); ok {
		return emb, nil
	}

	rec, err := r.store.GetSpeaker(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownSpeaker
	}
	if err != nil {
		return nil, err
	}

	emb, err := os.ReadFile(rec.EmbeddingPath)
	if err != nil {
		return nil, fmt.Errorf("load embedding for speaker %s: %w", id, err)
	}

	r.embeddings.Add(id, emb)
	return emb, nil
}
