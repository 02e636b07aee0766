package schema

import "github.com/tallo-speech/tallo-go/internal/emotion"

// ServeSynthesisRequest is the wire schema sent to the synthesis worker for
// one chunk. The embedding is opaque to this service.
type ServeSynthesisRequest struct {
	Text             string         `json:"text" msgpack:"text"`
	SpeakerEmbedding []byte         `json:"speaker_embedding" msgpack:"speaker_embedding"`
	Language         string         `json:"language" msgpack:"language"`
	SpeakingRate     float64        `json:"speaking_rate" msgpack:"speaking_rate"`
	PitchVariance    float64        `json:"pitch_variance" msgpack:"pitch_variance"`
	Emotion          emotion.Vector `json:"emotion" msgpack:"emotion"`
}

// ServeEmbedRequest asks the worker to extract a speaker embedding from
// reference audio. Called once at speaker onboarding.
type ServeEmbedRequest struct {
	Audio []byte `json:"audio" msgpack:"audio"`
}

// ServeEmbedResponse carries the opaque embedding.
type ServeEmbedResponse struct {
	Embedding []byte `json:"embedding" msgpack:"embedding"`
}
