package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/emotion"
	"github.com/tallo-speech/tallo-go/internal/schema"
)

// Batch synthesizes independent texts for one speaker. Items are not merged
// into a single artifact, so a failed item is reported alongside the
// successes instead of aborting the batch. Produced files are durable
// outputs, not request temporaries.
func (p *Pipeline) Batch(ctx context.Context, req *schema.BatchSynthesisRequest) (*schema.BatchSynthesisResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	embedding, err := p.speakers.Embedding(ctx, req.SpeakerID)
	if err != nil {
		return nil, err
	}

	results := make([]schema.BatchItemResult, 0, len(req.Texts))
	for idx, text := range req.Texts {
		item := schema.BatchItemResult{Index: idx, Text: text}

		artifact, synthErr := p.backend.Synthesize(ctx, &schema.ServeSynthesisRequest{
			Text:             text,
			SpeakerEmbedding: embedding,
			Language:         req.Language,
			SpeakingRate:     15,
			PitchVariance:    30,
			Emotion:          emotion.DefaultNeutral,
		})
		if synthErr != nil {
			p.logger.Error().Err(synthErr).Int("index", idx).Msg("Batch item failed")
			item.Error = synthErr.Error()
			results = append(results, item)
			continue
		}

		filename := fmt.Sprintf("%s_batch_%d_%s.wav", req.SpeakerID, idx, uuid.NewString())
		path := filepath.Join(p.outputDir, filename)
		if writeErr := audio.WriteWAVFile(artifact, path); writeErr != nil {
			item.Error = writeErr.Error()
			results = append(results, item)
			continue
		}

		item.File = filename
		results = append(results, item)
	}

	return &schema.BatchSynthesisResponse{Results: results}, nil
}
