package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tone(samples ...int) *Artifact {
	return &Artifact{Samples: samples, SampleRate: 44100, Channels: 1, BitDepth: 16}
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	merged, err := Merge([]*Artifact{tone(1, 2), tone(3), tone(4, 5, 6)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []int{1, 2, 3, 4, 5, 6}
	if len(merged.Samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(merged.Samples))
	}
	for i, s := range want {
		if merged.Samples[i] != s {
			t.Fatalf("sample %d: expected %d, got %d", i, s, merged.Samples[i])
		}
	}
	if merged.SampleRate != 44100 {
		t.Fatalf("expected merged artifact to carry the shared sample rate")
	}
}

func TestMergeSampleRateMismatchIsFatal(t *testing.T) {
	a := tone(1, 2)
	b := tone(3, 4)
	b.SampleRate = 22050

	_, err := Merge([]*Artifact{a, b})
	if err == nil {
		t.Fatalf("expected a consistency error")
	}

	var mismatch *FormatMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected FormatMismatchError, got %T: %v", err, err)
	}
	if mismatch.Index != 1 {
		t.Fatalf("expected mismatch reported at chunk 1, got %d", mismatch.Index)
	}
}

func TestMergeEmptyList(t *testing.T) {
	_, err := Merge(nil)
	if !errors.Is(err, ErrNoArtifacts) {
		t.Fatalf("expected ErrNoArtifacts, got %v", err)
	}
}

func TestWAVRoundTripThroughDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	src := tone(0, 1000, -1000, 32, 7)
	if err := WriteWAVFile(src, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadWAVFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if got.SampleRate != src.SampleRate || got.Channels != src.Channels {
		t.Fatalf("format changed across round trip: %+v", got)
	}
	if len(got.Samples) != len(src.Samples) {
		t.Fatalf("expected %d samples, got %d", len(src.Samples), len(got.Samples))
	}
	for i := range src.Samples {
		if got.Samples[i] != src.Samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, src.Samples[i], got.Samples[i])
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeWAV([]byte("definitely not a wav")); err == nil {
		t.Fatalf("expected error for invalid wav data")
	}

	if _, err := ReadWAVFile(filepath.Join(os.TempDir(), "does-not-exist-tallo.wav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
