package segment

import (
	"errors"
	"testing"
)

func TestSentencesBasicSplit(t *testing.T) {
	sentences := Sentences("Hello world. How are you? Great!")
	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %v", len(sentences), sentences)
	}
	if sentences[0] != "Hello world." {
		t.Fatalf("expected first sentence to keep its punctuation, got %q", sentences[0])
	}
}

func TestSentencesKorean(t *testing.T) {
	text := "안녕하세요. 오늘 날씨가 좋네요. 같이 산책할까요? 정말 즐거운 하루예요. 너무 신나요!"

	sentences := Sentences(text)
	if len(sentences) != 5 {
		t.Fatalf("expected 5 sentences, got %d: %v", len(sentences), sentences)
	}
}

func TestSentencesNoMidWordSplit(t *testing.T) {
	// Punctuation not followed by whitespace must not split (versions,
	// decimals, URLs).
	sentences := Sentences("Version 1.2 shipped today. It works.")
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(sentences), sentences)
	}
}

func TestSentencesEmptyInput(t *testing.T) {
	if got := Sentences("   \n\t  "); got != nil {
		t.Fatalf("expected nil for whitespace-only input, got %v", got)
	}
}

func TestSentencesTrailingWithoutTerminator(t *testing.T) {
	sentences := Sentences("First one. trailing fragment without punctuation")
	if len(sentences) != 2 {
		t.Fatalf("expected trailing fragment to survive, got %v", sentences)
	}
}

func TestChunksGrouping(t *testing.T) {
	tests := []struct {
		name       string
		sentences  int
		chunkSize  int
		wantChunks int
	}{
		{"exact multiple", 6, 3, 2},
		{"remainder", 5, 3, 2},
		{"single", 1, 3, 1},
		{"chunk size one", 4, 1, 4},
		{"invalid chunk size falls back to default", 6, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentences := make([]string, tt.sentences)
			for i := range sentences {
				sentences[i] = "문장입니다."
			}

			chunks := Chunks(sentences, tt.chunkSize)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("expected %d chunks, got %d", tt.wantChunks, len(chunks))
			}
			for i, c := range chunks {
				if c.Index != i {
					t.Fatalf("expected dense contiguous indices, chunk %d has index %d", i, c.Index)
				}
				if c.Text == "" {
					t.Fatalf("chunk %d is empty", i)
				}
			}
		})
	}
}

func TestSplitKoreanScenario(t *testing.T) {
	text := "안녕하세요. 오늘 날씨가 좋네요. 같이 산책할까요? 정말 즐거운 하루예요. 너무 신나요!"

	chunks, err := Split(text, 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	want0 := "안녕하세요. 오늘 날씨가 좋네요. 같이 산책할까요?"
	want1 := "정말 즐거운 하루예요. 너무 신나요!"
	if chunks[0].Text != want0 {
		t.Fatalf("chunk 0 mismatch:\n got %q\nwant %q", chunks[0].Text, want0)
	}
	if chunks[1].Text != want1 {
		t.Fatalf("chunk 1 mismatch:\n got %q\nwant %q", chunks[1].Text, want1)
	}
}

func TestSplitEmptyFails(t *testing.T) {
	_, err := Split("  ", 3)
	if !errors.Is(err, ErrNoSentences) {
		t.Fatalf("expected ErrNoSentences, got %v", err)
	}
}

func TestIsLongRouting(t *testing.T) {
	four := []string{"a.", "b.", "c.", "d."}
	five := append(four, "e.")

	if IsLong(four) {
		t.Fatalf("4 sentences should route to the short path")
	}
	if !IsLong(five) {
		t.Fatalf("5 sentences should route to the long path")
	}
}
