package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/store"
)

// Manager fronts the artifact cache: entry lookups in the store plus the
// materialized WAV files on disk. The store enforces first-writer-wins per
// key, so no additional locking is needed here.
type Manager struct {
	store  *store.Store
	dir    string
	logger zerolog.Logger
}

// NewManager creates a cache manager rooted at dir.
func NewManager(st *store.Store, dir string, logger zerolog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Manager{store: st, dir: dir, logger: logger}, nil
}

// Lookup returns the artifact path for key when an entry exists and the file
// is still materialized on disk. A stale entry whose file is gone counts as
// a miss.
func (m *Manager) Lookup(ctx context.Context, key store.CacheKey) (string, bool) {
	path, err := m.store.GetCacheEntry(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return "", false
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("Cache lookup failed")
		return "", false
	}

	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Promote writes the artifact into the cache directory and registers it
// under key. When another writer already owns the key, the freshly written
// file is discarded and the winner's path is returned.
func (m *Manager) Promote(ctx context.Context, key store.CacheKey, artifact *audio.Artifact) (string, error) {
	speakerDir := filepath.Join(m.dir, key.SpeakerID)
	if err := os.MkdirAll(speakerDir, 0o755); err != nil {
		return "", fmt.Errorf("create speaker cache dir: %w", err)
	}

	path := filepath.Join(speakerDir,
		fmt.Sprintf("%s_chunk%d_%s.wav", key.ContentID, key.ChunkIndex, uuid.NewString()))
	if err := audio.WriteWAVFile(artifact, path); err != nil {
		return "", fmt.Errorf("materialize cache artifact: %w", err)
	}

	won, err := m.store.PutCacheEntry(ctx, key, path)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("register cache entry: %w", err)
	}
	if !won {
		os.Remove(path)
		winner, err := m.store.GetCacheEntry(ctx, key)
		if err != nil {
			return "", fmt.Errorf("load winning cache entry: %w", err)
		}
		return winner, nil
	}

	return path, nil
}

// Evict removes every cache entry and materialized file for a speaker,
// used when the speaker itself is deleted.
func (m *Manager) Evict(ctx context.Context, speakerID string) error {
	paths, err := m.store.DeleteCacheEntries(ctx, speakerID)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove cached artifact")
		}
	}
	os.Remove(filepath.Join(m.dir, speakerID))
	return nil
}
