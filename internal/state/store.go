package state

import (
	"context"
	"sync"
)

// Store single source of truth for one feature: an immutable snapshot replaced
// by reducer-style updates and exposed as a read-only stream.
//
// Reducers receive the current snapshot by value and return the next one. Slices
// and maps inside S are shared with older snapshots, so reducers must copy them
// instead of mutating in place.
type Store[S any] struct {
	mu    sync.RWMutex
	state S
	subs  map[int]chan S
	next  int
}

// NewStore creates a store holding initial.
func NewStore[S any](initial S) *Store[S] {
	return &Store[S]{state: initial, subs: make(map[int]chan S)}
}

// Snapshot current state.
func (s *Store[S]) Snapshot() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update applies fn and publishes the result. Last write wins.
func (s *Store[S]) Update(fn func(S) S) S {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	s.publishLocked()
	return s.state
}

// TryUpdate applies fn and publishes only when fn reports a change.
func (s *Store[S]) TryUpdate(fn func(S) (S, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed := fn(s.state)
	if !changed {
		return false
	}
	s.state = next
	s.publishLocked()
	return true
}

// Subscribe returns a stream of snapshots starting with the current one.
// Slow readers only ever see the latest snapshot. The channel is closed when
// ctx is done.
func (s *Store[S]) Subscribe(ctx context.Context) <-chan S {
	ch := make(chan S, 1)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	ch <- s.state
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

func (s *Store[S]) publishLocked() {
	for _, ch := range s.subs {
		// keep only the newest snapshot in the buffer
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.state:
		default:
		}
	}
}
