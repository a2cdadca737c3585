package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry[T any] struct {
	v       T
	touched time.Time
}

type MemoryStore[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	now func() time.Time
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{m: map[string]entry[T]{}, now: time.Now}
}

// Get returns the session value and counts as activity for Sweep.
func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if ok {
		e.touched = s.now()
		s.m[id] = e
	}
	return e.v, ok, nil
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = entry[T]{v: v, touched: s.now()}
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

// NewID returns 32 hex characters.
func (s *MemoryStore[T]) NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Len reports the number of live sessions.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Sweep drops sessions idle for longer than ttl and returns how many went.
func (s *MemoryStore[T]) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.m {
		if e.touched.Before(cutoff) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore[T]) RunSweeper(ctx context.Context, interval, ttl time.Duration, onSweep func(n int)) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.Sweep(ttl); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
