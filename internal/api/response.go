package api

import (
	"encoding/json"
	"net/http"

	"github.com/tallo-speech/tallo-go/internal/schema"
)

// WriteError writes a JSON error body in the {"detail": ...} shape clients
// expect.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(schema.ErrorResponse{Detail: message})
}

// WriteJSON writes the data structure as JSON.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteAudio writes inline WAV audio.
func WriteAudio(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", "attachment; filename=audio.wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
