package state

import (
	"context"
	"sync"
)

// Scope owns the cancellation of every operation started by one feature.
// Dispose cancels them all and waits for tracked goroutines.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScope derives a scope from parent.
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context cancelled on Dispose.
func (s *Scope) Context() context.Context { return s.ctx }

// Bind returns a context cancelled when either ctx or the scope ends.
func (s *Scope) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return bound, func() {
		stop()
		cancel()
	}
}

// Go runs fn in a tracked goroutine bound to the scope.
func (s *Scope) Go(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Dispose cancels the scope and waits for goroutines started with Go.
func (s *Scope) Dispose() {
	s.cancel()
	s.wg.Wait()
}

// Done reports whether the scope was disposed.
func (s *Scope) Done() bool { return s.ctx.Err() != nil }
