package audio

import (
	"errors"
	"fmt"
)

// ErrNoArtifacts indicates Merge was called with an empty list.
var ErrNoArtifacts = errors.New("audio: no artifacts to merge")

// FormatMismatchError reports inconsistent audio formats across chunks.
// Mismatched input is never silently resampled.
type FormatMismatchError struct {
	Index    int
	Got      int
	Expected int
	Field    string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("audio: chunk %d %s %d does not match %d", e.Index, e.Field, e.Got, e.Expected)
}

// Merge concatenates an ordered, complete list of artifacts into one.
// Every artifact must share the same sample rate and channel count; the
// result carries the shared format. No cross-fade or gap is inserted.
func Merge(artifacts []*Artifact) (*Artifact, error) {
	if len(artifacts) == 0 {
		return nil, ErrNoArtifacts
	}

	first := artifacts[0]
	total := 0
	for i, a := range artifacts {
		if a.SampleRate != first.SampleRate {
			return nil, &FormatMismatchError{Index: i, Got: a.SampleRate, Expected: first.SampleRate, Field: "sample rate"}
		}
		if a.Channels != first.Channels {
			return nil, &FormatMismatchError{Index: i, Got: a.Channels, Expected: first.Channels, Field: "channel count"}
		}
		total += len(a.Samples)
	}

	merged := &Artifact{
		Samples:    make([]int, 0, total),
		SampleRate: first.SampleRate,
		Channels:   first.Channels,
		BitDepth:   first.BitDepth,
	}
	for _, a := range artifacts {
		merged.Samples = append(merged.Samples, a.Samples...)
	}

	return merged, nil
}
