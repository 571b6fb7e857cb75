package fetch

import (
	"sync"

	"github.com/raphaelgruber/staffdash/internal/metrics"
)

// Store holds the latest published snapshot of one scope.
// Each refresh cycle takes a generation from Begin; only the most recently
// started cycle may publish, so an older cycle that completes late is dropped.
type Store[S any] struct {
	mu        sync.Mutex
	started   uint64
	published uint64
	current   S
	has       bool
	subs      map[int]chan S
	nextSub   int
	collector *metrics.Collector
}

// NewStore creates an empty store. collector may be nil.
func NewStore[S any](collector *metrics.Collector) *Store[S] {
	return &Store[S]{subs: make(map[int]chan S), collector: collector}
}

// Begin starts a new cycle and returns its generation.
func (s *Store[S]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return s.started
}

// Latest reports whether gen is still the most recently started cycle.
func (s *Store[S]) Latest(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.started
}

// Publish installs snap if gen is the latest cycle. Stale snapshots are discarded.
func (s *Store[S]) Publish(gen uint64, snap S) bool {
	_, ok := s.PublishWith(gen, snap, nil)
	return ok
}

// PublishWith is Publish with a final transform. fn runs under the store
// lock, after the generation check, so no Update can interleave between it
// and the install. fn must not call back into the store.
func (s *Store[S]) PublishWith(gen uint64, snap S, fn func(S) S) (S, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.started {
		s.collector.Inc(metrics.EventStaleCycle, 1)
		return snap, false
	}
	if fn != nil {
		snap = fn(snap)
	}
	s.current = snap
	s.published = gen
	s.has = true
	s.notify(snap)
	return snap, true
}

// Current returns the published snapshot and its generation.
func (s *Store[S]) Current() (S, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.published, s.has
}

// Update replaces the current snapshot with fn's result.
// fn runs under the store lock and must not call back into the store.
func (s *Store[S]) Update(fn func(S) (S, error)) (S, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.current)
	if err != nil {
		return s.current, err
	}
	s.current = next
	s.has = true
	s.notify(next)
	return next, nil
}

// Subscribe returns a channel receiving every newly installed snapshot.
// Slow subscribers only see the latest one. Call cancel to stop.
func (s *Store[S]) Subscribe() (<-chan S, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan S, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// notify delivers snap without blocking. Caller must hold mu.
func (s *Store[S]) notify(snap S) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
