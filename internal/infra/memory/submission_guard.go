package memory

import (
	"context"
	"sync"
	"time"
)

// SubmissionGuard is an in-memory implementation of app.SubmissionGuard.
// Keys expire lazily on the next Acquire.
type SubmissionGuard struct {
	clock func() time.Time
	mu    sync.Mutex
	held  map[string]time.Time
}

func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{
		clock: time.Now,
		held:  make(map[string]time.Time),
	}
}

func (g *SubmissionGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.clock()
	for k, exp := range g.held {
		if !exp.After(now) {
			delete(g.held, k)
		}
	}
	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = now.Add(ttl)
	return true, nil
}

func (g *SubmissionGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	return nil
}
