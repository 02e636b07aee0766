package speaker

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/cache"
	"github.com/tallo-speech/tallo-go/internal/schema"
	"github.com/tallo-speech/tallo-go/internal/store"
)

type fakeBackend struct {
	embedCalls atomic.Int32
	embedErr   error
}

func (f *fakeBackend) Health(ctx context.Context) error { return nil }

func (f *fakeBackend) Synthesize(ctx context.Context, req *schema.ServeSynthesisRequest) (*audio.Artifact, error) {
	return &audio.Artifact{Samples: []int{1}, SampleRate: 44100, Channels: 1, BitDepth: 16}, nil
}

func (f *fakeBackend) Embed(ctx context.Context, req *schema.ServeEmbedRequest) (*schema.ServeEmbedResponse, error) {
	f.embedCalls.Add(1)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return &schema.ServeEmbedResponse{Embedding: []byte("embedding-of-" + string(req.Audio[:1]))}, nil
}

func testRegistry(t *testing.T) (*Registry, *fakeBackend, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(context.Background(), filepath.Join(dir, "tallo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cm, err := cache.NewManager(st, filepath.Join(dir, "cache"), zerolog.Nop())
	require.NoError(t, err)

	be := &fakeBackend{}
	reg, err := NewRegistry(st, be, cm, filepath.Join(dir, "embeddings"), zerolog.Nop())
	require.NoError(t, err)
	return reg, be, st
}

func TestCreateAndGetSpeaker(t *testing.T) {
	reg, be, _ := testRegistry(t)
	ctx := context.Background()

	profile, err := reg.Create(ctx, &schema.CreateSpeakerRequest{
		Name:  "통통이",
		Audio: []byte("ref-audio-bytes"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "ko", profile.Language)
	assert.Equal(t, int32(1), be.embedCalls.Load())

	got, err := reg.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "통통이", got.Name)

	list, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateSpeakerValidation(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	_, err := reg.Create(ctx, &schema.CreateSpeakerRequest{Audio: []byte("x")})
	require.Error(t, err)

	_, err = reg.Create(ctx, &schema.CreateSpeakerRequest{Name: "a"})
	require.Error(t, err)
}

func TestCreateSpeakerEmbedFailure(t *testing.T) {
	reg, be, _ := testRegistry(t)
	be.embedErr = errors.New("worker down")

	_, err := reg.Create(context.Background(), &schema.CreateSpeakerRequest{
		Name:  "a",
		Audio: []byte("x"),
	})
	require.Error(t, err)
}

func TestEmbeddingLoadedOncePerProcess(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	profile, err := reg.Create(ctx, &schema.CreateSpeakerRequest{Name: "a", Audio: []byte("xyz")})
	require.NoError(t, err)

	first, err := reg.Embedding(ctx, profile.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Served from the in-process cache on subsequent calls.
	second, err := reg.Embedding(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmbeddingUnknownSpeaker(t *testing.T) {
	reg, _, _ := testRegistry(t)

	_, err := reg.Embedding(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownSpeaker)
}

func TestDeleteSpeakerRemovesCacheAndFiles(t *testing.T) {
	reg, _, st := testRegistry(t)
	ctx := context.Background()

	profile, err := reg.Create(ctx, &schema.CreateSpeakerRequest{Name: "a", Audio: []byte("xyz")})
	require.NoError(t, err)

	key := store.CacheKey{SpeakerID: profile.ID, ContentID: "story-7", ChunkIndex: 0}
	_, err = st.PutCacheEntry(ctx, key, filepath.Join(t.TempDir(), "ghost.wav"))
	require.NoError(t, err)

	require.NoError(t, reg.Delete(ctx, profile.ID))

	_, err = reg.Get(ctx, profile.ID)
	assert.ErrorIs(t, err, ErrUnknownSpeaker)

	_, err = st.GetCacheEntry(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, reg.Delete(ctx, profile.ID), ErrUnknownSpeaker)
}
