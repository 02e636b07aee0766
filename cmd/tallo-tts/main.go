package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallo-speech/tallo-go/internal/schema"
)

var (
	serverURL      string
	outputFile     string
	speakerID      string
	contentID      string
	language       string
	emotionPreset  string
	autoEmotion    bool
	chunkSentences int
	speakingRate   float64
	pitchVariance  float64
	apiKey         string
)

var rootCmd = &cobra.Command{
	Use:   "tallo-tts [text]",
	Short: "Generate speech from text",
	Long: `tallo-tts is a command-line client for the tallo synthesis server.

Examples:
  # Basic synthesis
  tallo-tts --speaker a1b2c3d4e5f6 "안녕하세요. 반갑습니다."

  # Save to file
  tallo-tts --speaker a1b2c3d4e5f6 -o output.wav "옛날 옛적에..."

  # Cache the result under a content id for instant replays
  tallo-tts --speaker a1b2c3d4e5f6 --content story-001 "옛날 옛적에..."

  # Let the server pick emotion from the text
  tallo-tts --speaker a1b2c3d4e5f6 --auto-emotion "정말 놀라운 일이야!"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTTS,
}

func init() {
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Synthesis server URL")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVar(&speakerID, "speaker", "", "Speaker profile id (required)")
	rootCmd.Flags().StringVar(&contentID, "content", "", "Content id for caching (empty = no caching)")
	rootCmd.Flags().StringVar(&language, "language", "ko", "Text language")
	rootCmd.Flags().StringVar(&emotionPreset, "emotion", "", "Emotion preset (neutral, joy, sad, fear, anger, surprise)")
	rootCmd.Flags().BoolVar(&autoEmotion, "auto-emotion", false, "Detect emotion from the text")
	rootCmd.Flags().IntVar(&chunkSentences, "chunk-sentences", 0, "Sentences per chunk (0 = server default)")
	rootCmd.Flags().Float64Var(&speakingRate, "rate", 0, "Speaking rate (0 = server default)")
	rootCmd.Flags().Float64Var(&pitchVariance, "pitch", 0, "Pitch variance (0 = server default)")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	_ = rootCmd.MarkFlagRequired("speaker")
}

func runTTS(cmd *cobra.Command, args []string) error {
	inline := false
	req := schema.SynthesisRequest{
		AsFile:         &inline,
		Text:           args[0],
		SpeakerID:      speakerID,
		ContentID:      contentID,
		Language:       language,
		EmotionPreset:  emotionPreset,
		AutoEmotion:    autoEmotion,
		ChunkSentences: chunkSentences,
		SpeakingRate:   speakingRate,
		PitchVariance:  pitchVariance,
	}

	audio, err := makeSynthesisRequest(&req)
	if err != nil {
		return err
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, audio, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Audio saved to %s (%d bytes)\n", outputFile, len(audio))
		return nil
	}

	_, err = os.Stdout.Write(audio)
	return err
}

func makeSynthesisRequest(req *schema.SynthesisRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/v1/tts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := &http.Client{Timeout: 300 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return audio, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
