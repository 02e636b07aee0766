// Package segment splits raw text into sentences and groups them into
// bounded chunks for synthesis.
package segment

import (
	"errors"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSentences is the number of sentences joined into one
	// synthesis chunk when the request does not override it.
	DefaultChunkSentences = 3

	// LongTextThreshold is the sentence count at which a request is routed
	// to the chunked, parallel path instead of a single synthesis call.
	LongTextThreshold = 5
)

// ErrNoSentences indicates segmentation produced zero usable sentences.
var ErrNoSentences = errors.New("segment: no usable sentences in text")

// Chunk is one synthesis unit: a dense 0-based index and the joined text.
type Chunk struct {
	Index int
	Text  string
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// Sentences splits text on sentence-terminal punctuation followed by
// whitespace. Empty and whitespace-only pieces are discarded.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Consume a run of terminal punctuation, then split only when
		// whitespace (or end of input) follows.
		end := i
		for end+1 < len(runes) && isTerminal(runes[end+1]) {
			end++
		}
		if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
			i = end
			continue
		}

		if s := strings.TrimSpace(string(runes[start : end+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = end + 1
		i = end
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// Chunks groups consecutive sentences into ordered chunks of chunkSize,
// joining with a single space. The last chunk may be smaller. A chunkSize
// below 1 falls back to the default.
func Chunks(sentences []string, chunkSize int) []Chunk {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSentences
	}

	var chunks []Chunk
	for i := 0; i < len(sentences); i += chunkSize {
		end := i + chunkSize
		if end > len(sentences) {
			end = len(sentences)
		}
		joined := strings.TrimSpace(strings.Join(sentences[i:end], " "))
		if joined == "" {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: joined})
	}

	return chunks
}

// IsLong reports whether the sentence count routes the request to the
// chunked path.
func IsLong(sentences []string) bool {
	return len(sentences) >= LongTextThreshold
}

// Split segments text and groups it into chunks in one call, failing when
// no usable sentence remains.
func Split(text string, chunkSize int) ([]Chunk, error) {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}
	return Chunks(sentences, chunkSize), nil
}
