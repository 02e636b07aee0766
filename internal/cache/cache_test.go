package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/store"
)

func testManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(context.Background(), filepath.Join(dir, "tallo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m, err := NewManager(st, filepath.Join(dir, "cache"), zerolog.Nop())
	require.NoError(t, err)
	return m, st
}

func testArtifact() *audio.Artifact {
	return &audio.Artifact{Samples: []int{1, 2, 3}, SampleRate: 44100, Channels: 1, BitDepth: 16}
}

func TestPromoteAndLookup(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	key := store.CacheKey{SpeakerID: "sp-1", ContentID: "story-7", ChunkIndex: 0}

	if _, ok := m.Lookup(ctx, key); ok {
		t.Fatalf("expected a miss before promotion")
	}

	path, err := m.Promote(ctx, key, testArtifact())
	require.NoError(t, err)
	assert.FileExists(t, path)

	got, ok := m.Lookup(ctx, key)
	require.True(t, ok)
	assert.Equal(t, path, got)
}

func TestPromoteFirstWriterWins(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	key := store.CacheKey{SpeakerID: "sp-1", ContentID: "story-7", ChunkIndex: 2}

	first, err := m.Promote(ctx, key, testArtifact())
	require.NoError(t, err)

	second, err := m.Promote(ctx, key, testArtifact())
	require.NoError(t, err)

	// The losing write is discarded and the winner's path returned.
	assert.Equal(t, first, second)

	entries, err := filepath.Glob(filepath.Join(filepath.Dir(first), "*.wav"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLookupStaleEntryIsMiss(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	key := store.CacheKey{SpeakerID: "sp-1", ContentID: "story-7", ChunkIndex: 1}

	path, err := m.Promote(ctx, key, testArtifact())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	if _, ok := m.Lookup(ctx, key); ok {
		t.Fatalf("entry without a materialized file must be a miss")
	}
}

func TestEvictRemovesEntriesAndFiles(t *testing.T) {
	m, st := testManager(t)
	ctx := context.Background()

	var paths []string
	for i := 0; i < 2; i++ {
		p, err := m.Promote(ctx, store.CacheKey{SpeakerID: "sp-1", ContentID: "story-7", ChunkIndex: i}, testArtifact())
		require.NoError(t, err)
		paths = append(paths, p)
	}

	require.NoError(t, m.Evict(ctx, "sp-1"))

	for _, p := range paths {
		assert.NoFileExists(t, p)
	}
	_, err := st.GetCacheEntry(ctx, store.CacheKey{SpeakerID: "sp-1", ContentID: "story-7", ChunkIndex: 0})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTrackerCleanup(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(zerolog.Nop())

	var files []string
	for i := 0; i < 3; i++ {
		f := filepath.Join(dir, fmt.Sprintf("chunk%d.wav", i))
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
		tracker.Register(f)
		files = append(files, f)
	}
	// Missing files must not break the sweep.
	tracker.Register(filepath.Join(dir, "never-created.wav"))

	assert.Equal(t, 4, tracker.Remaining())
	tracker.Cleanup()
	assert.Equal(t, 0, tracker.Remaining())

	for _, f := range files {
		assert.NoFileExists(t, f)
	}
}

func TestTrackerForget(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(zerolog.Nop())

	keep := filepath.Join(dir, "promoted.wav")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	tracker.Register(keep)
	tracker.Forget(keep)
	tracker.Cleanup()

	assert.FileExists(t, keep)
}
