package engine

import (
	"context"
	"sync"

	"SignalSentinel/internal/metrics"
)

// TaskRegistry tracks the background outcome tasks so they can be cancelled
// together. Finished tasks are forgotten.
type TaskRegistry struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   map[string]context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// NewTaskRegistry creates a registry whose tasks are cancelled with parent.
func NewTaskRegistry(parent context.Context) *TaskRegistry {
	ctx, cancel := context.WithCancel(parent)
	return &TaskRegistry{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]context.CancelFunc),
	}
}

// Go runs fn in its own goroutine under id. It returns false when the
// registry was cancelled or id is already running.
func (r *TaskRegistry) Go(id string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.ctx.Err() != nil {
		return false
	}
	if _, ok := r.tasks[id]; ok {
		return false
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.tasks[id] = cancel
	metrics.LiveTrackers.Set(float64(len(r.tasks)))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.done(id)
		fn(ctx)
	}()
	return true
}

func (r *TaskRegistry) done(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.tasks[id]; ok {
		cancel()
		delete(r.tasks, id)
	}
	metrics.LiveTrackers.Set(float64(len(r.tasks)))
}

// Len returns the number of running tasks.
func (r *TaskRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// CancelAll cancels every running task and refuses new ones.
func (r *TaskRegistry) CancelAll() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()
}

// Wait blocks until every task has returned.
func (r *TaskRegistry) Wait() {
	r.wg.Wait()
}
