package schema

import (
	"fmt"
	"strings"

	"github.com/tallo-speech/tallo-go/internal/emotion"
)

const (
	defaultLanguage       = "ko"
	defaultChunkSentences = 3
	defaultSpeakingRate   = 15.0
	defaultPitchVariance  = 30.0

	maxChunkSentences = 10
)

// SynthesisRequest is the public request body for speech synthesis. Either
// Text or TextAsset must be set; TextAsset names a text file in the
// configured asset directory.
type SynthesisRequest struct {
	Text      string `json:"text,omitempty" msgpack:"text,omitempty"`
	TextAsset string `json:"text_asset,omitempty" msgpack:"text_asset,omitempty"`

	SpeakerID string `json:"speaker_id" msgpack:"speaker_id"`
	ContentID string `json:"content_id,omitempty" msgpack:"content_id,omitempty"`
	Language  string `json:"language" msgpack:"language"`

	Emotion       *emotion.Vector `json:"emotion,omitempty" msgpack:"emotion,omitempty"`
	EmotionPreset string          `json:"emotion_preset,omitempty" msgpack:"emotion_preset,omitempty"`
	AutoEmotion   bool            `json:"auto_emotion" msgpack:"auto_emotion"`

	SpeakingRate  float64 `json:"speaking_rate" msgpack:"speaking_rate"`
	PitchVariance float64 `json:"pitch_variance" msgpack:"pitch_variance"`

	ChunkSentences int `json:"chunk_sentences" msgpack:"chunk_sentences"`

	// AsFile selects a file response; when false the audio is returned
	// inline in the response body.
	AsFile *bool `json:"as_file,omitempty" msgpack:"as_file,omitempty"`
}

// Validate applies default values and validates the request. No synthesis
// work is attempted before this passes.
func (r *SynthesisRequest) Validate(maxTextLength int) error {
	r.applyDefaults()

	if strings.TrimSpace(r.Text) == "" && strings.TrimSpace(r.TextAsset) == "" {
		return fmt.Errorf("either text or text_asset is required")
	}
	if strings.TrimSpace(r.Text) != "" && strings.TrimSpace(r.TextAsset) != "" {
		return fmt.Errorf("text and text_asset are mutually exclusive")
	}

	if strings.TrimSpace(r.SpeakerID) == "" {
		return fmt.Errorf("speaker_id is required")
	}

	if maxTextLength > 0 && len(r.Text) > maxTextLength {
		return fmt.Errorf("text is too long, max length is %d", maxTextLength)
	}

	if r.ChunkSentences < 1 || r.ChunkSentences > maxChunkSentences {
		return fmt.Errorf("chunk_sentences must be between 1 and %d", maxChunkSentences)
	}

	if r.SpeakingRate < 5 || r.SpeakingRate > 30 {
		return fmt.Errorf("speaking_rate must be between 5 and 30")
	}

	if r.PitchVariance < 0 || r.PitchVariance > 300 {
		return fmt.Errorf("pitch_variance must be between 0 and 300")
	}

	if r.Emotion != nil {
		if err := r.Emotion.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ResolvedEmotion returns the explicit conditioning vector for the request,
// or nil when per-chunk resolution should decide. A named preset counts as
// explicit.
func (r *SynthesisRequest) ResolvedEmotion() *emotion.Vector {
	if r.Emotion != nil {
		return r.Emotion
	}
	if r.EmotionPreset != "" {
		v := emotion.Preset(r.EmotionPreset)
		return &v
	}
	return nil
}

// WantsFile reports whether the caller asked for a file response.
func (r *SynthesisRequest) WantsFile() bool {
	return r.AsFile == nil || *r.AsFile
}

func (r *SynthesisRequest) applyDefaults() {
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if r.ChunkSentences == 0 {
		r.ChunkSentences = defaultChunkSentences
	}
	if r.SpeakingRate == 0 {
		r.SpeakingRate = defaultSpeakingRate
	}
	if r.PitchVariance == 0 {
		r.PitchVariance = defaultPitchVariance
	}
}

// SynthesisResponse is returned when the caller asked for a file reference
// instead of inline audio.
type SynthesisResponse struct {
	File        string  `json:"file" msgpack:"file"`
	AudioURL    string  `json:"audio_url" msgpack:"audio_url"`
	DurationSec float64 `json:"duration_sec" msgpack:"duration_sec"`
	Chunks      int     `json:"chunks" msgpack:"chunks"`
}

// BatchSynthesisRequest synthesizes independent texts in one call. Items
// fail individually; the batch itself never aborts on a single item.
type BatchSynthesisRequest struct {
	Texts     []string `json:"texts" msgpack:"texts"`
	SpeakerID string   `json:"speaker_id" msgpack:"speaker_id"`
	Language  string   `json:"language" msgpack:"language"`
}

// Validate checks the batch request and applies defaults.
func (r *BatchSynthesisRequest) Validate() error {
	if len(r.Texts) == 0 {
		return fmt.Errorf("texts must not be empty")
	}
	if strings.TrimSpace(r.SpeakerID) == "" {
		return fmt.Errorf("speaker_id is required")
	}
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	return nil
}

// BatchItemResult is the per-item outcome of a batch request.
type BatchItemResult struct {
	Index int    `json:"index" msgpack:"index"`
	Text  string `json:"text" msgpack:"text"`
	File  string `json:"file,omitempty" msgpack:"file,omitempty"`
	Error string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// BatchSynthesisResponse carries all per-item results.
type BatchSynthesisResponse struct {
	Results []BatchItemResult `json:"results" msgpack:"results"`
}
