// Package scheduler fans chunk synthesis out across a bounded worker pool
// and fans back in preserving original chunk order.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/tallo-speech/tallo-go/internal/audio"
	"github.com/tallo-speech/tallo-go/internal/emotion"
)

const (
	// acceleratorWorkers serializes access to a single accelerator context.
	acceleratorWorkers = 1
	// cpuWorkers is the pool size on commodity CPU hardware.
	cpuWorkers = 3

	snippetLength = 40
)

// Job is one chunk synthesis task. The index is carried through so results
// can be re-sorted into original order regardless of completion order.
type Job struct {
	Index   int
	Text    string
	Emotion emotion.Vector
}

// ChunkError reports a failed chunk with enough context for the caller's
// disposition: abort the request in merge mode, or fail only the item in
// batch mode. Synthesis is never retried automatically.
type ChunkError struct {
	Index   int
	Snippet string
	Err     error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%q): %v", e.Index, e.Snippet, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}

// SynthesizeFunc performs one backend synthesis call for a job.
type SynthesizeFunc func(ctx context.Context, job Job) (*audio.Artifact, error)

// PoolSize returns the worker count for the hardware class: 1 when an
// accelerator backs the worker, 3 on CPU. A positive override wins.
func PoolSize(accelerator bool, override int) int {
	if override > 0 {
		return override
	}
	if accelerator {
		return acceleratorWorkers
	}
	return cpuWorkers
}

// Pool runs chunk jobs with bounded concurrency.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers reports the pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every job and returns artifacts ordered by chunk index. The
// join barrier completes before anything is returned, so the caller never
// assembles an incomplete list. On any chunk failure the remaining queued
// jobs are skipped (an in-flight backend call is never interrupted) and the
// lowest-index ChunkError is returned.
func (p *Pool) Run(ctx context.Context, jobs []Job, synthesize SynthesizeFunc) ([]*audio.Artifact, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan Job)
	results := make([]*audio.Artifact, len(jobs))

	var mu sync.Mutex
	var firstErr *ChunkError

	recordErr := func(job Job, err error) {
		mu.Lock()
		if firstErr == nil || job.Index < firstErr.Index {
			firstErr = &ChunkError{Index: job.Index, Snippet: snippet(job.Text), Err: err}
		}
		mu.Unlock()
		cancel()
	}

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				// Skip queued work once the request is doomed; the
				// in-flight backend call itself is never interrupted.
				if ctx.Err() != nil {
					continue
				}

				artifact, err := synthesize(ctx, job)
				if err != nil {
					recordErr(job, err)
					continue
				}
				results[job.Index] = artifact
			}
		}()
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
