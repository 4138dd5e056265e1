package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrEmpty is returned by Backend.TryPop when nothing is ready.
var ErrEmpty = errors.New("queue is empty")

// Backoff bounds for Run after a failed Pop.
const (
	minPopBackoff = 100 * time.Millisecond
	maxPopBackoff = 5 * time.Second
)

// Backend stores envelopes.
type Backend interface {
	// Push enqueues env, visible to Pop once delay has elapsed.
	Push(ctx context.Context, env Envelope, delay time.Duration) error
	// Pop blocks until an envelope is ready or ctx is done.
	Pop(ctx context.Context) (Envelope, error)
	// TryPop returns a ready envelope or ErrEmpty without blocking.
	TryPop(ctx context.Context) (Envelope, error)
	Close() error
}

// Queue dispatches jobs onto a Backend and runs registered handlers.
type Queue struct {
	backend Backend
	log     *zap.SugaredLogger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// New creates a Queue over backend.
func New(backend Backend, log *zap.SugaredLogger) *Queue {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Queue{backend: backend, log: log, handlers: make(map[string]Handler)}
}

// Register binds h to jobs called name. A later registration replaces an
// earlier one.
func (q *Queue) Register(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// Dispatch encodes and enqueues job.
func (q *Queue) Dispatch(ctx context.Context, job Job) error {
	env, err := NewEnvelope(job)
	if err != nil {
		return err
	}
	if err := q.backend.Push(ctx, env, 0); err != nil {
		return fmt.Errorf("dispatching %s: %w", env.Name, err)
	}
	q.log.Debugw("job dispatched", "job", env.Name, "id", env.ID)
	return nil
}

// Run processes jobs until ctx is cancelled. A failed Pop (an undecodable
// envelope, a dropped redis connection) is logged and retried with backoff.
func (q *Queue) Run(ctx context.Context) error {
	backoff := minPopBackoff
	for {
		env, err := q.backend.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.log.Errorw("popping job", "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxPopBackoff)
			continue
		}
		backoff = minPopBackoff
		q.Process(ctx, env)
	}
}

// Drain processes every ready job and returns how many ran. Jobs released
// with a delay stay queued.
func (q *Queue) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		env, err := q.backend.TryPop(ctx)
		if errors.Is(err, ErrEmpty) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("popping job: %w", err)
		}
		q.Process(ctx, env)
		n++
	}
}

// Process runs one envelope and applies its outcome. A release re-queues the
// job while attempts remain; any other error drops it.
func (q *Queue) Process(ctx context.Context, env Envelope) {
	q.mu.RLock()
	h, ok := q.handlers[env.Name]
	q.mu.RUnlock()
	log := q.log.With("job", env.Name, "id", env.ID)
	if !ok {
		log.Warn("no handler registered, dropping job")
		return
	}

	env.Attempts++
	err := h(ctx, env)
	if err == nil {
		log.Debugw("job finished", "attempt", env.Attempts)
		return
	}

	re, released := AsRelease(err)
	if !released {
		log.Errorw("job failed", "attempt", env.Attempts, "err", err)
		return
	}
	if env.Attempts >= env.MaxAttempts {
		log.Warnw("job released but out of attempts, dropping", "attempts", env.Attempts, "max", env.MaxAttempts, "err", re.Err)
		return
	}
	if err := q.backend.Push(ctx, env, re.Delay); err != nil {
		log.Errorw("re-queueing job", "err", err)
		return
	}
	log.Infow("job released", "attempt", env.Attempts, "delay", re.Delay, "err", re.Err)
}

// Close closes the backend.
func (q *Queue) Close() error {
	return q.backend.Close()
}
