package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when pushing to a closed backend.
var ErrClosed = errors.New("queue backend closed")

// MemoryBackend keeps envelopes in process. Delayed envelopes become ready
// through time.AfterFunc.
type MemoryBackend struct {
	mu      sync.Mutex
	ready   []Envelope
	delayed map[string]*time.Timer
	signal  chan struct{}
	closed  bool
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		delayed: make(map[string]*time.Timer),
		signal:  make(chan struct{}, 1),
	}
}

func (b *MemoryBackend) Push(_ context.Context, env Envelope, delay time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if delay <= 0 {
		b.enqueueLocked(env)
		return nil
	}
	b.delayed[env.ID] = time.AfterFunc(delay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.delayed, env.ID)
		if !b.closed {
			b.enqueueLocked(env)
		}
	})
	return nil
}

func (b *MemoryBackend) enqueueLocked(env Envelope) {
	b.ready = append(b.ready, env)
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

func (b *MemoryBackend) TryPop(_ context.Context) (Envelope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.ready) == 0 {
		return Envelope{}, ErrEmpty
	}
	env := b.ready[0]
	b.ready = b.ready[1:]
	return env, nil
}

func (b *MemoryBackend) Pop(ctx context.Context) (Envelope, error) {
	for {
		env, err := b.TryPop(ctx)
		if err == nil {
			return env, nil
		}
		select {
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-b.signal:
		}
	}
}

// Pending returns the number of ready and delayed envelopes.
func (b *MemoryBackend) Pending() (ready, delayed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ready), len(b.delayed)
}

// Close stops delayed timers.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, t := range b.delayed {
		t.Stop()
		delete(b.delayed, id)
	}
	return nil
}
