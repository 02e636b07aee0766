package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/config"
	"github.com/tallo-speech/tallo-go/internal/schema"
)

// Client handles communication with the synthesis worker over HTTP.
type Client struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
}

// NewClient creates a new backend client with connection pooling.
func NewClient(cfg *config.BackendConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	return &Client{
		httpClient: client,
		endpoint:   cfg.URL,
		timeout:    cfg.Timeout,
	}
}

// Health checks if the synthesis worker is reachable.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// Synthesize sends one chunk to the worker and decodes the WAV response into
// an artifact carrying the worker's sample rate.
func (c *Client) Synthesize(ctx context.Context, req *schema.ServeSynthesisRequest) (*audio.Artifact, error) {
	body, err := EncodeSynthesisRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	respBody, err := c.post(ctx, "/v1/synthesize", body)
	if err != nil {
		return nil, err
	}

	artifact, err := audio.DecodeWAV(respBody)
	if err != nil {
		return nil, fmt.Errorf("failed to decode worker audio: %w", err)
	}

	return artifact, nil
}

// Embed extracts a speaker embedding from reference audio. Not on the
// synthesis hot path.
func (c *Client) Embed(ctx context.Context, req *schema.ServeEmbedRequest) (*schema.ServeEmbedResponse, error) {
	if req == nil || len(req.Audio) == 0 {
		return nil, fmt.Errorf("reference audio is empty")
	}

	body, err := EncodeMsgpack(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	respBody, err := c.post(ctx, "/v1/embed", body)
	if err != nil {
		return nil, err
	}

	var result schema.ServeEmbedResponse
	if err := DecodeMsgpack(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("worker returned an empty embedding")
	}

	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/msgpack")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrBackendTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, &BackendError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return respBody, nil
}
