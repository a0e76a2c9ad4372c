package feature

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// holder wiring shared by every state holder: the store, the scope that owns
// in-flight work, and the logger.
type holder[S any] struct {
	store  *state.Store[S]
	scope  *state.Scope
	logger *zap.Logger
	now    func() time.Time
}

func newHolder[S any](parent context.Context, initial S, logger *zap.Logger, name string) holder[S] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return holder[S]{
		store:  state.NewStore(initial),
		scope:  state.NewScope(parent),
		logger: logger.With(zap.String("feature", name)),
		now:    time.Now,
	}
}

// State current snapshot.
func (h holder[S]) State() S { return h.store.Snapshot() }

// Subscribe stream of snapshots, closed when ctx ends or the holder is disposed.
func (h holder[S]) Subscribe(ctx context.Context) <-chan S {
	bound, cancel := h.scope.Bind(ctx)
	ch := h.store.Subscribe(bound)
	context.AfterFunc(bound, cancel)
	return ch
}

// Dispose cancels every operation still running for this feature.
func (h holder[S]) Dispose() { h.scope.Dispose() }

func (h holder[S]) hooks(resource string) state.Hooks {
	return state.Hooks{Name: resource, Logger: h.logger, Message: api.UserMessage}
}

// load runs one single-flight fetch bound to both ctx and the holder scope.
func load[S, T any](ctx context.Context, h holder[S], lens state.Lens[S, T], resource string,
	fetch func(context.Context) (T, error), onSuccess func(S, T) S) error {
	bound, cancel := h.scope.Bind(ctx)
	defer cancel()
	return state.Load(bound, h.store, lens, fetch, h.hooks(resource), onSuccess)
}

// loadWith is load with a state change applied only if the fetch starts.
func loadWith[S, T any](ctx context.Context, h holder[S], lens state.Lens[S, T], resource string,
	begin func(S) S, fetch func(context.Context) (T, error), onSuccess func(S, T) S) error {
	bound, cancel := h.scope.Bind(ctx)
	defer cancel()
	return state.LoadWith(bound, h.store, lens, begin, fetch, h.hooks(resource), onSuccess)
}
