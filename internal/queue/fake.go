package queue

import (
	"context"
	"sync"
)

// Fake records dispatched jobs without running them.
type Fake struct {
	mu   sync.Mutex
	Jobs []Job
	Err  error
}

// NewFake returns an empty recorder.
func NewFake() *Fake { return &Fake{} }

func (f *Fake) Dispatch(_ context.Context, job Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Jobs = append(f.Jobs, job)
	return nil
}

// Dispatched returns the recorded jobs named name.
func (f *Fake) Dispatched(name string) []Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Job
	for _, j := range f.Jobs {
		if j.JobName() == name {
			out = append(out, j)
		}
	}
	return out
}
