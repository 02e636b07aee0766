package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/config"
	"github.com/tallo-speech/tallo-go/internal/emotion"
	"github.com/tallo-speech/tallo-go/internal/schema"
)

func wavBytes(t *testing.T, samples []int, sampleRate int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	artifact := &audio.Artifact{Samples: samples, SampleRate: sampleRate, Channels: 1, BitDepth: 16}
	require.NoError(t, audio.WriteWAVFile(artifact, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func synthReq() *schema.ServeSynthesisRequest {
	return &schema.ServeSynthesisRequest{
		Text:             "안녕하세요.",
		SpeakerEmbedding: []byte{0x01, 0x02, 0x03},
		Language:         "ko",
		SpeakingRate:     15,
		PitchVariance:    30,
		Emotion:          emotion.DefaultNeutral,
	}
}

func TestEncodeSynthesisRequest(t *testing.T) {
	data, err := EncodeSynthesisRequest(synthReq())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, DecodeMsgpack(data, &decoded))

	assert.Contains(t, decoded, "text")
	assert.Contains(t, decoded, "speaker_embedding")
	assert.Contains(t, decoded, "language")
	assert.Contains(t, decoded, "speaking_rate")
	assert.Contains(t, decoded, "pitch_variance")
	assert.Contains(t, decoded, "emotion")
}

func TestEncodeSynthesisRequestRejectsEmpty(t *testing.T) {
	_, err := EncodeSynthesisRequest(nil)
	require.Error(t, err)

	_, err = EncodeSynthesisRequest(&schema.ServeSynthesisRequest{SpeakerEmbedding: []byte{1}})
	require.Error(t, err)

	_, err = EncodeSynthesisRequest(&schema.ServeSynthesisRequest{Text: "hi"})
	require.Error(t, err)
}

func TestSynthesize_Success(t *testing.T) {
	fixture := wavBytes(t, []int{0, 512, -512, 64}, 44100)

	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/synthesize", r.URL.Path)
		assert.Equal(t, "application/msgpack", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(fixture)
	}))
	defer mockServer.Close()

	client := NewClient(&config.BackendConfig{URL: mockServer.URL, Timeout: 10 * time.Second})

	artifact, err := client.Synthesize(context.Background(), synthReq())

	require.NoError(t, err)
	assert.Equal(t, 44100, artifact.SampleRate)
	assert.Len(t, artifact.Samples, 4)
}

func TestSynthesize_BackendError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "model crashed"}`))
	}))
	defer mockServer.Close()

	client := NewClient(&config.BackendConfig{URL: mockServer.URL, Timeout: 10 * time.Second})

	_, err := client.Synthesize(context.Background(), synthReq())

	require.Error(t, err)
	assert.True(t, IsBackendError(err))
}

func TestSynthesize_GarbageAudio(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not wav data"))
	}))
	defer mockServer.Close()

	client := NewClient(&config.BackendConfig{URL: mockServer.URL, Timeout: 10 * time.Second})

	_, err := client.Synthesize(context.Background(), synthReq())
	require.Error(t, err)
}

func TestSynthesize_Timeout(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
	}))
	defer mockServer.Close()

	client := NewClient(&config.BackendConfig{URL: mockServer.URL, Timeout: 100 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Synthesize(ctx, synthReq())
	require.Error(t, err)
}

func TestEmbed_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embed", r.URL.Path)

		body, err := EncodeMsgpack(&schema.ServeEmbedResponse{Embedding: []byte{0xAA, 0xBB}})
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(body)
	}))
	defer mockServer.Close()

	client := NewClient(&config.BackendConfig{URL: mockServer.URL, Timeout: 10 * time.Second})

	resp, err := client.Embed(context.Background(), &schema.ServeEmbedRequest{Audio: []byte{0x01}})

	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, resp.Embedding)
}

func TestEmbed_EmptyAudio(t *testing.T) {
	client := NewClient(&config.BackendConfig{URL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := client.Embed(context.Background(), &schema.ServeEmbedRequest{})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer mockServer.Close()

	client := NewClient(&config.BackendConfig{URL: mockServer.URL, Timeout: 10 * time.Second})
	require.NoError(t, client.Health(context.Background()))
}
