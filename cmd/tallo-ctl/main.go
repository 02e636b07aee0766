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
	serverURL string
	apiKey    string
	output    string
)

var rootCmd = &cobra.Command{
	Use:   "tallo-ctl",
	Short: "Synthesis server management tool",
	Long: `tallo-ctl is a management tool for tallo synthesis servers.

Commands:
  health       Check server health
  speakers     Manage speaker profiles
  pregenerate  Warm the cache for a content unit`,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE:  runHealth,
}

var speakersCmd = &cobra.Command{
	Use:   "speakers",
	Short: "Manage speaker profiles",
}

var speakersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered speakers",
	RunE:  runSpeakersList,
}

var speakersAddCmd = &cobra.Command{
	Use:   "add [name] [audio-file]",
	Short: "Register a speaker from reference audio",
	Args:  cobra.ExactArgs(2),
	RunE:  runSpeakersAdd,
}

var speakersDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a speaker and its cached audio",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpeakersDelete,
}

var pregenerateCmd = &cobra.Command{
	Use:   "pregenerate [content-id] [pages-file]",
	Short: "Warm the cache for every page of a content unit",
	Long: `pregenerate reads a JSON file of the form

  {"speaker_id": "...", "pages": [{"page": 1, "text": "..."}, ...]}

and asks the server to synthesize and cache any page that is not cached yet.`,
	Args: cobra.ExactArgs(2),
	RunE: runPregenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Synthesis server URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text, json")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(speakersCmd)
	rootCmd.AddCommand(pregenerateCmd)

	speakersCmd.AddCommand(speakersListCmd)
	speakersCmd.AddCommand(speakersAddCmd)
	speakersCmd.AddCommand(speakersDeleteCmd)

	speakersAddCmd.Flags().String("language", "ko", "Speaker language")
	speakersAddCmd.Flags().String("description", "", "Speaker description")
}

func runHealth(cmd *cobra.Command, args []string) error {
	resp, err := makeRequest(http.MethodGet, serverURL+"/v1/health", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(resp))
		return nil
	}

	var health schema.HealthResponse
	_ = json.Unmarshal(resp, &health)

	fmt.Printf("Status:  %s\n", health.Status)
	fmt.Printf("Backend: %s\n", health.Backend)
	return nil
}

func runSpeakersList(cmd *cobra.Command, args []string) error {
	resp, err := makeRequest(http.MethodGet, serverURL+"/v1/speakers", nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(resp))
		return nil
	}

	var list schema.ListSpeakersResponse
	_ = json.Unmarshal(resp, &list)

	if list.Total == 0 {
		fmt.Println("No speakers registered")
		return nil
	}

	fmt.Printf("Speakers (%d):\n", list.Total)
	for _, sp := range list.Speakers {
		fmt.Printf("  %s  %s (%s)\n", sp.ID, sp.Name, sp.Language)
	}
	return nil
}

func runSpeakersAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	audioFile := args[1]

	audioData, err := os.ReadFile(audioFile)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	language, _ := cmd.Flags().GetString("language")
	description, _ := cmd.Flags().GetString("description")

	body, _ := json.Marshal(schema.CreateSpeakerRequest{
		Name:        name,
		Description: description,
		Language:    language,
		Audio:       audioData,
	})

	resp, err := makeRequest(http.MethodPost, serverURL+"/v1/speakers", body)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(resp))
		return nil
	}

	var result schema.CreateSpeakerResponse
	_ = json.Unmarshal(resp, &result)

	if result.Success {
		fmt.Printf("Speaker '%s' registered with id %s\n", name, result.Speaker.ID)
	} else {
		fmt.Printf("Failed: %s\n", result.Message)
	}
	return nil
}

func runSpeakersDelete(cmd *cobra.Command, args []string) error {
	resp, err := makeRequest(http.MethodDelete, serverURL+"/v1/speakers/"+args[0], nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(resp))
		return nil
	}

	var result schema.DeleteSpeakerResponse
	_ = json.Unmarshal(resp, &result)

	if result.Success {
		fmt.Printf("Speaker %s deleted\n", result.SpeakerID)
	} else {
		fmt.Printf("Failed: %s\n", result.Message)
	}
	return nil
}

func runPregenerate(cmd *cobra.Command, args []string) error {
	contentID := args[0]
	pagesFile := args[1]

	body, err := os.ReadFile(pagesFile)
	if err != nil {
		return fmt.Errorf("failed to read pages file: %w", err)
	}

	resp, err := makeRequest(http.MethodPost, serverURL+"/v1/contents/"+contentID+"/pregenerate", body)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(resp))
		return nil
	}

	var result schema.PregenerateResponse
	_ = json.Unmarshal(resp, &result)

	fmt.Printf("Content %s: %d pages\n", result.ContentID, result.TotalPages)
	for _, page := range result.Pages {
		switch {
		case page.Error != "":
			fmt.Printf("  page %d: FAILED (%s)\n", page.Page, page.Error)
		case page.Cached:
			fmt.Printf("  page %d: cached\n", page.Page)
		default:
			fmt.Printf("  page %d: generated\n", page.Page)
		}
	}
	return nil
}

func makeRequest(method, url string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Second)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := &http.Client{Timeout: 300 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(data))
	}

	return data, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
