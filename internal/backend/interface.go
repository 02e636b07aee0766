package backend

import (
	"context"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/schema"
)

// Backend is the synthesis worker this service fronts. Implementations must
// be safe for concurrent use from up to pool-size goroutines; the embedding
// handle they receive is shared read-only.
type Backend interface {
	Health(ctx context.Context) error
	Synthesize(ctx context.Context, req *schema.ServeSynthesisRequest) (*audio.Artifact, error)
	Embed(ctx context.Context, req *schema.ServeEmbedRequest) (*schema.ServeEmbedResponse, error)
}

// Ensure Client implements Backend.
var _ Backend = (*Client)(nil)
