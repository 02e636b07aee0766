// Package audio models synthesized waveforms and assembles ordered
// per-chunk artifacts into one output.
package audio

import (
	"bytes"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Artifact is a decoded waveform plus its format metadata. Artifacts are
// ephemeral: per-chunk intermediates are always cleaned up, the final merged
// artifact is optionally promoted into the cache by the caller.
type Artifact struct {
	Samples    []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// Duration returns the artifact length in seconds.
func (a *Artifact) Duration() float64 {
	if a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate*a.Channels)
}

// DecodeWAV parses WAV bytes into an Artifact.
func DecodeWAV(data []byte) (*Artifact, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode wav: %w", err)
	}

	return &Artifact{
		Samples:    buf.Data,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// ReadWAVFile loads a WAV file from disk into an Artifact.
func ReadWAVFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: read %s: %w", path, err)
	}
	return DecodeWAV(data)
}

// WriteWAVFile encodes the artifact as a WAV file at path.
func WriteWAVFile(a *Artifact, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}

	bitDepth := a.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	channels := a.Channels
	if channels == 0 {
		channels = 1
	}

	enc := wav.NewEncoder(f, a.SampleRate, bitDepth, channels, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: channels, SampleRate: a.SampleRate},
		Data:           a.Samples,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("audio: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audio: close wav encoder: %w", err)
	}
	return f.Close()
}
