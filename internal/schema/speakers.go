package schema

// SpeakerProfile is the public view of a registered speaker identity.
// Profiles are immutable after onboarding except for deletion.
type SpeakerProfile struct {
	ID             string `json:"id" msgpack:"id"`
	Name           string `json:"name" msgpack:"name"`
	Description    string `json:"description,omitempty" msgpack:"description,omitempty"`
	Language       string `json:"language" msgpack:"language"`
	CreatedAt      string `json:"created_at" msgpack:"created_at"`
	ReferenceAudio string `json:"reference_audio,omitempty" msgpack:"reference_audio,omitempty"`
}

// CreateSpeakerRequest registers a new speaker from reference audio. The
// embedding is extracted once at creation time, never on the synthesis path.
type CreateSpeakerRequest struct {
	Name        string `json:"name" msgpack:"name"`
	Description string `json:"description,omitempty" msgpack:"description,omitempty"`
	Language    string `json:"language" msgpack:"language"`
	Audio       []byte `json:"audio" msgpack:"audio"`
}

// CreateSpeakerResponse is returned after registering a speaker.
type CreateSpeakerResponse struct {
	Success bool   `json:"success" msgpack:"success"`
	Message string `json:"message" msgpack:"message"`
	Speaker SpeakerProfile `json:"speaker" msgpack:"speaker"`
}

// ListSpeakersResponse lists all registered speakers.
type ListSpeakersResponse struct {
	Speakers []SpeakerProfile `json:"speakers" msgpack:"speakers"`
	Total    int              `json:"total" msgpack:"total"`
}

// DeleteSpeakerResponse is returned when a speaker and its dependent cache
// entries have been removed.
type DeleteSpeakerResponse struct {
	Success   bool   `json:"success" msgpack:"success"`
	Message   string `json:"message" msgpack:"message"`
	SpeakerID string `json:"speaker_id" msgpack:"speaker_id"`
}
