// Package cache maintains the content-addressed artifact cache and tracks
// temporary files for guaranteed per-request cleanup.
package cache

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Tracker records every temporary file created during a single request.
// Cleanup runs unconditionally after the response is produced, on the
// success path and on every failure path.
type Tracker struct {
	mu     sync.Mutex
	paths  []string
	logger zerolog.Logger
}

// NewTracker returns an empty per-request tracker.
func NewTracker(logger zerolog.Logger) *Tracker {
	return &Tracker{logger: logger}
}

// Register adds a file to the cleanup list.
func (t *Tracker) Register(path string) {
	if path == "" {
		return
	}
	t.mu.Lock()
	t.paths = append(t.paths, path)
	t.mu.Unlock()
}

// Forget drops a file from the cleanup list, used when an artifact is
// promoted into the cache and must outlive the request.
func (t *Tracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, p := range t.paths {
		if p == path {
			t.paths = append(t.paths[:i], t.paths[i+1:]...)
			return
		}
	}
}

// Remaining reports how many files are still registered.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.paths)
}

// Cleanup removes every registered file. Missing files are fine; other
// removal failures are logged and do not stop the sweep.
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			t.logger.Warn().Err(err).Str("path", p).Msg("Failed to remove temp file")
		}
	}
}
