package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/emotion"
)

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{Index: i, Text: fmt.Sprintf("문장 %d입니다.", i), Emotion: emotion.DefaultNeutral}
	}
	return jobs
}

// indexArtifact returns an artifact whose single sample is the chunk index,
// so merge order is directly observable.
func indexArtifact(idx int) *audio.Artifact {
	return &audio.Artifact{Samples: []int{idx}, SampleRate: 44100, Channels: 1, BitDepth: 16}
}

func TestPoolSize(t *testing.T) {
	if got := PoolSize(true, 0); got != 1 {
		t.Fatalf("accelerator hardware must serialize to 1 worker, got %d", got)
	}
	if got := PoolSize(false, 0); got != 3 {
		t.Fatalf("expected 3 workers on cpu, got %d", got)
	}
	if got := PoolSize(true, 5); got != 5 {
		t.Fatalf("explicit override must win, got %d", got)
	}
}

func TestRunPreservesChunkOrder(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			jobs := makeJobs(10)

			// Invert completion order: early chunks finish last.
			synth := func(ctx context.Context, job Job) (*audio.Artifact, error) {
				time.Sleep(time.Duration(10-job.Index) * time.Millisecond)
				return indexArtifact(job.Index), nil
			}

			artifacts, err := NewPool(workers).Run(context.Background(), jobs, synth)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(artifacts) != len(jobs) {
				t.Fatalf("expected %d artifacts, got %d", len(jobs), len(artifacts))
			}
			for i, a := range artifacts {
				if a == nil || a.Samples[0] != i {
					t.Fatalf("artifact %d out of order: %+v", i, a)
				}
			}
		})
	}
}

func TestRunBoundedConcurrency(t *testing.T) {
	var active, peak atomic.Int32

	synth := func(ctx context.Context, job Job) (*audio.Artifact, error) {
		now := active.Add(1)
		for {
			prev := peak.Load()
			if now <= prev || peak.CompareAndSwap(prev, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return indexArtifact(job.Index), nil
	}

	_, err := NewPool(3).Run(context.Background(), makeJobs(12), synth)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := peak.Load(); got > 3 {
		t.Fatalf("pool exceeded its bound: %d concurrent jobs", got)
	}
}

func TestRunSingleWorkerSerializes(t *testing.T) {
	var active, peak atomic.Int32

	synth := func(ctx context.Context, job Job) (*audio.Artifact, error) {
		now := active.Add(1)
		if now > peak.Load() {
			peak.Store(now)
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return indexArtifact(job.Index), nil
	}

	_, err := NewPool(1).Run(context.Background(), makeJobs(5), synth)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if peak.Load() != 1 {
		t.Fatalf("accelerator pool must never overlap jobs, peak=%d", peak.Load())
	}
}

func TestRunChunkFailureCarriesIndex(t *testing.T) {
	backendErr := errors.New("model crashed")

	synth := func(ctx context.Context, job Job) (*audio.Artifact, error) {
		if job.Index == 2 {
			return nil, backendErr
		}
		return indexArtifact(job.Index), nil
	}

	_, err := NewPool(3).Run(context.Background(), makeJobs(6), synth)
	if err == nil {
		t.Fatalf("expected a chunk error")
	}

	var chunkErr *ChunkError
	if !errors.As(err, &chunkErr) {
		t.Fatalf("expected ChunkError, got %T: %v", err, err)
	}
	if chunkErr.Index != 2 {
		t.Fatalf("expected failing chunk index 2, got %d", chunkErr.Index)
	}
	if chunkErr.Snippet == "" {
		t.Fatalf("chunk error must carry a text snippet")
	}
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected the underlying cause to be preserved")
	}
}

func TestRunNoRetryAfterFailure(t *testing.T) {
	var calls atomic.Int32

	synth := func(ctx context.Context, job Job) (*audio.Artifact, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	}

	_, err := NewPool(1).Run(context.Background(), makeJobs(8), synth)
	if err == nil {
		t.Fatalf("expected an error")
	}

	// The serial pool fails on the first job and must skip the queued rest
	// rather than retrying or continuing.
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 synthesis attempt, got %d", got)
	}
}

func TestRunEmptyJobs(t *testing.T) {
	artifacts, err := NewPool(3).Run(context.Background(), nil, func(ctx context.Context, job Job) (*audio.Artifact, error) {
		t.Fatalf("synthesize must not run for an empty job list")
		return nil, nil
	})
	if err != nil || artifacts != nil {
		t.Fatalf("expected nil, nil for empty jobs, got %v, %v", artifacts, err)
	}
}
