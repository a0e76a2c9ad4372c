package state

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Status lifecycle of one fetch: Idle -> Loading -> Success | Error.
// Loading is re-entered from Success or Error on refresh.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ErrBusy returned by Load when a fetch for the same resource is already in flight.
var ErrBusy = errors.New("fetch already in flight")

// Resource async slice of a feature state.
type Resource[T any] struct {
	Status Status
	Data   T
	Err    string
	Busy   bool
}

// Loaded reports whether Data holds a successful result (possibly stale during a refresh).
func (r Resource[T]) Loaded() bool { return r.Status == Success }

// Lens selects one Resource inside a feature state.
type Lens[S, T any] struct {
	Get func(S) Resource[T]
	Set func(S, Resource[T]) S
}

// Hooks logging and error-message mapping for Load.
type Hooks struct {
	Name    string
	Logger  *zap.Logger
	Message func(error) string // user-facing text; defaults to err.Error()
}

func (h Hooks) message(err error) string {
	if h.Message != nil {
		return h.Message(err)
	}
	return err.Error()
}

// Load runs fetch for the resource selected by lens with at most one fetch in
// flight. A second call while busy returns ErrBusy without calling fetch. The
// busy flag is cleared unconditionally when fetch returns or panics.
//
// onSuccess, when non-nil, may derive further state from the fetched data in the
// same update that publishes it.
func Load[S, T any](ctx context.Context, st *Store[S], lens Lens[S, T], fetch func(context.Context) (T, error), hooks Hooks, onSuccess func(S, T) S) error {
	return LoadWith(ctx, st, lens, nil, fetch, hooks, onSuccess)
}

// LoadWith is Load with a begin step: begin, when non-nil, is applied in the
// same update that marks the resource busy and is skipped when Load would
// return ErrBusy.
func LoadWith[S, T any](ctx context.Context, st *Store[S], lens Lens[S, T], begin func(S) S, fetch func(context.Context) (T, error), hooks Hooks, onSuccess func(S, T) S) error {
	started := st.TryUpdate(func(s S) (S, bool) {
		if lens.Get(s).Busy {
			return s, false
		}
		if begin != nil {
			s = begin(s)
		}
		r := lens.Get(s)
		r.Busy = true
		r.Status = Loading
		r.Err = ""
		return lens.Set(s, r), true
	})
	if !started {
		if hooks.Logger != nil {
			hooks.Logger.Debug("Fetch skipped, already in flight", zap.String("resource", hooks.Name))
		}
		return ErrBusy
	}

	var (
		data      T
		err       error
		completed bool
	)
	defer func() {
		st.Update(func(s S) S {
			r := lens.Get(s)
			r.Busy = false
			switch {
			case !completed:
				r.Status = Error
				r.Err = hooks.message(errors.New("unexpected failure"))
			case err != nil:
				r.Status = Error
				r.Err = hooks.message(err)
			default:
				r.Status = Success
				r.Data = data
			}
			s = lens.Set(s, r)
			if completed && err == nil && onSuccess != nil {
				s = onSuccess(s, data)
			}
			return s
		})
	}()

	data, err = fetch(ctx)
	completed = true
	if err != nil && hooks.Logger != nil {
		hooks.Logger.Error("Fetch failed", zap.String("resource", hooks.Name), zap.Error(err))
	}
	return err
}
