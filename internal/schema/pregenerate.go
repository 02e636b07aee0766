package schema

import "fmt"

// ContentPage is one page of a logical content unit (a story page, for
// example) to pre-generate audio for.
type ContentPage struct {
	Page int    `json:"page" msgpack:"page"`
	Text string `json:"text" msgpack:"text"`
}

// PregenerateRequest asks for cached audio covering every page of a content
// unit for one speaker. Re-running it for the same content is idempotent.
type PregenerateRequest struct {
	SpeakerID string        `json:"speaker_id" msgpack:"speaker_id"`
	Pages     []ContentPage `json:"pages" msgpack:"pages"`
}

// Validate checks the pregeneration request.
func (r *PregenerateRequest) Validate() error {
	if r.SpeakerID == "" {
		return fmt.Errorf("speaker_id is required")
	}
	if len(r.Pages) == 0 {
		return fmt.Errorf("pages must not be empty")
	}
	for i, p := range r.Pages {
		if p.Text == "" {
			return fmt.Errorf("page %d has empty text", i)
		}
	}
	return nil
}

// PregeneratedPage is the per-page outcome of a pregeneration run.
type PregeneratedPage struct {
	Page     int    `json:"page" msgpack:"page"`
	AudioURL string `json:"audio_url,omitempty" msgpack:"audio_url,omitempty"`
	Cached   bool   `json:"cached" msgpack:"cached"`
	Error    string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// PregenerateResponse reports every page, generated or reused.
type PregenerateResponse struct {
	ContentID  string             `json:"content_id" msgpack:"content_id"`
	SpeakerID  string             `json:"speaker_id" msgpack:"speaker_id"`
	TotalPages int                `json:"total_pages" msgpack:"total_pages"`
	Pages      []PregeneratedPage `json:"pages" msgpack:"pages"`
}
