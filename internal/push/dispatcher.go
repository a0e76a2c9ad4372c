package push

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler processes one push message.
type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Dispatcher routes messages by their type string. Messages of an unknown
// type go to the fallback handler.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
	logger   *zap.Logger
}

func NewDispatcher(fallback Handler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler), fallback: fallback, logger: logger}
}

// Register sets the handler for msgType, replacing any previous one.
func (d *Dispatcher) Register(msgType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[msgType] = h
}

// Dispatch hands msg to its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	d.mu.RLock()
	h, ok := d.handlers[msg.Type]
	d.mu.RUnlock()
	if !ok {
		h = d.fallback
	}
	if h == nil {
		d.logger.Debug("No handler for push message", zap.String("type", msg.Type))
		return nil
	}
	if err := h.Handle(ctx, msg); err != nil {
		d.logger.Error("Push handler failed", zap.String("type", msg.Type), zap.Error(err))
		return fmt.Errorf("handle %q: %w", msg.Type, err)
	}
	return nil
}

// Chain runs handlers in order and stops at the first error.
func Chain(handlers ...Handler) Handler {
	return HandlerFunc(func(ctx context.Context, msg Message) error {
		for _, h := range handlers {
			if err := h.Handle(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}
