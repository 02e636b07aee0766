package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/emotion"
	"github.com/tallo-speech/tallo-go/internal/schema"
	"github.com/tallo-speech/tallo-go/internal/store"
)

// cacheURLPrefix is where pregenerated audio is served from.
const cacheURLPrefix = "/v1/cache"

// Pregenerate warms the cache for every page of a content unit. Pages that
// already have a materialized cache entry are skipped, so re-running the
// same request costs no backend calls. Page failures are collected per page
// rather than aborting the run.
func (p *Pipeline) Pregenerate(ctx context.Context, contentID string, req *schema.PregenerateRequest) (*schema.PregenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	embedding, err := p.speakers.Embedding(ctx, req.SpeakerID)
	if err != nil {
		return nil, err
	}

	pages := make([]schema.PregeneratedPage, 0, len(req.Pages))
	for _, page := range req.Pages {
		key := store.CacheKey{SpeakerID: req.SpeakerID, ContentID: contentID, ChunkIndex: page.Page}
		out := schema.PregeneratedPage{Page: page.Page}

		if path, ok := p.cache.Lookup(ctx, key); ok {
			out.Cached = true
			out.AudioURL = pageURL(req.SpeakerID, path)
			pages = append(pages, out)
			continue
		}

		artifact, synthErr := p.backend.Synthesize(ctx, &schema.ServeSynthesisRequest{
			Text:             page.Text,
			SpeakerEmbedding: embedding,
			Language:         "ko",
			SpeakingRate:     15,
			PitchVariance:    30,
			Emotion:          emotion.Detect(page.Text),
		})
		if synthErr != nil {
			p.logger.Error().Err(synthErr).
				Str("content_id", contentID).
				Int("page", page.Page).
				Msg("Pregeneration failed for page")
			out.Error = synthErr.Error()
			pages = append(pages, out)
			continue
		}

		path, promoteErr := p.cache.Promote(ctx, key, artifact)
		if promoteErr != nil {
			// The audio exists but cannot be cached; park it as a plain
			// output so the page is not lost.
			path = filepath.Join(p.outputDir, fmt.Sprintf("%s_%s_page%d.wav", req.SpeakerID, contentID, page.Page))
			if writeErr := audio.WriteWAVFile(artifact, path); writeErr != nil {
				out.Error = promoteErr.Error()
				pages = append(pages, out)
				continue
			}
			out.AudioURL = "/v1/outputs/" + filepath.Base(path)
			pages = append(pages, out)
			continue
		}

		out.AudioURL = pageURL(req.SpeakerID, path)
		pages = append(pages, out)
	}

	return &schema.PregenerateResponse{
		ContentID:  contentID,
		SpeakerID:  req.SpeakerID,
		TotalPages: len(req.Pages),
		Pages:      pages,
	}, nil
}

func pageURL(speakerID, path string) string {
	return fmt.Sprintf("%s/%s/%s", cacheURLPrefix, speakerID, filepath.Base(path))
}
