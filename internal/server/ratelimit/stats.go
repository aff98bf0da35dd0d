package ratelimit

import (
	"context"
	"sync"
	"time"
)

// StatsEvent is one limiter decision.
type StatsEvent struct {
	Client  string
	Class   Class
	Allowed bool
	At      time.Time
}

// StatsStore persists decision statistics. Callers treat errors as
// best-effort and never fail a request because of them.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

type Counters struct {
	Allowed int64
	Denied  int64
}

// MemoryStatsStore counts decisions in memory, in total and per class.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byClass map[Class]Counters
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{byClass: make(map[Class]Counters)}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.byClass[ev.Class]
	if ev.Allowed {
		s.total.Allowed++
		c.Allowed++
	} else {
		s.total.Denied++
		c.Denied++
	}
	s.byClass[ev.Class] = c
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByClass() map[Class]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Class]Counters, len(s.byClass))
	for k, v := range s.byClass {
		out[k] = v
	}
	return out
}
