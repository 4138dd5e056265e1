// Package queue runs background jobs. Jobs are JSON-encoded into envelopes,
// pushed onto a Backend and executed by name-registered handlers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxAttempts caps jobs that do not declare their own ceiling.
const DefaultMaxAttempts = 1

// Job is a unit of background work.
type Job interface {
	JobName() string
}

// Retryable jobs declare how many times they may run in total.
type Retryable interface {
	MaxAttempts() int
}

// Dispatcher enqueues jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Envelope is the serialised form of a queued job.
type Envelope struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	QueuedAt    time.Time       `json:"queued_at"`
}

// NewEnvelope encodes job.
func NewEnvelope(job Job) (Envelope, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding job %s: %w", job.JobName(), err)
	}
	maxAttempts := DefaultMaxAttempts
	if r, ok := job.(Retryable); ok && r.MaxAttempts() > 0 {
		maxAttempts = r.MaxAttempts()
	}
	return Envelope{
		ID:          uuid.NewString(),
		Name:        job.JobName(),
		Payload:     payload,
		MaxAttempts: maxAttempts,
		QueuedAt:    time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Name, err)
	}
	return nil
}

// ReleaseError asks the worker to run the job again after Delay.
type ReleaseError struct {
	Delay time.Duration
	Err   error
}

func (e *ReleaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("released for %s: %v", e.Delay, e.Err)
	}
	return fmt.Sprintf("released for %s", e.Delay)
}

func (e *ReleaseError) Unwrap() error { return e.Err }

// Release returns an error that re-queues the job after delay. cause may be nil.
func Release(delay time.Duration, cause error) error {
	return &ReleaseError{Delay: delay, Err: cause}
}

// AsRelease reports whether err requests a release.
func AsRelease(err error) (*ReleaseError, bool) {
	var re *ReleaseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Handler executes one envelope.
type Handler func(ctx context.Context, env Envelope) error

// HandlerFor adapts a typed job handler.
func HandlerFor[T Job](fn func(ctx context.Context, job T) error) Handler {
	return func(ctx context.Context, env Envelope) error {
		var job T
		if err := env.Decode(&job); err != nil {
			return err
		}
		return fn(ctx, job)
	}
}
