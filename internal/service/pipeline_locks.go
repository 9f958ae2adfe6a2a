package service

import (
	"context"
	"sync"
	"time"
)

// ExportedPipelineLocks lets service_test reach pipelineLocks.
type ExportedPipelineLocks = pipelineLocks

// ─────────────────────────────────────────────────────────────
// pipelineLocks: per-pipeline run exclusion
// ─────────────────────────────────────────────────────────────

// pipelineLocks tracks which pipelines have a run in flight. Two runs of
// the same pipeline would page over and upsert into the same tables, so
// RunJob skips a pipeline that is already held. The zero value is ready.
type pipelineLocks struct {
	mu       sync.Mutex
	held     map[string]time.Time // pipeline -> run start
	inFlight sync.WaitGroup
}

// TryLock claims pipeline for one run and reports whether it was free.
func (l *pipelineLocks) TryLock(pipeline string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[pipeline]; busy {
		return false
	}
	if l.held == nil {
		l.held = map[string]time.Time{}
	}
	l.held[pipeline] = time.Now()
	l.inFlight.Add(1)
	return true
}

// Unlock ends the run claimed by TryLock. Releasing a pipeline that is not
// held does nothing.
func (l *pipelineLocks) Unlock(pipeline string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[pipeline]; !busy {
		return
	}
	delete(l.held, pipeline)
	l.inFlight.Done()
}

// Running reports whether pipeline has a run in flight.
func (l *pipelineLocks) Running(pipeline string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[pipeline]
	return busy
}

// WaitAll returns once no pipeline is held, or earlier if ctx ends first.
// Shutdown uses it to let in-flight batches commit.
func (l *pipelineLocks) WaitAll(ctx context.Context) {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		l.inFlight.Wait()
	}()
	select {
	case <-drained:
	case <-ctx.Done():
	}
}
