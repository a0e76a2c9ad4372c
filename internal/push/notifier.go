package push

import (
	"context"

	"go.uber.org/zap"
)

// Notifier renders a local notification.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier renders notifications as log entries; the headless client has
// no notification tray.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier { return &LogNotifier{logger: logger} }

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	fields := []zap.Field{
		zap.String("type", msg.Type),
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
	}
	if id, ok := msg.CaseID(); ok {
		fields = append(fields, zap.Int("case_id", id))
	}
	n.logger.Info("Notification", fields...)
	return nil
}

// NotifyHandler Handler that only renders the message.
func NotifyHandler(n Notifier) Handler {
	return HandlerFunc(n.Notify)
}
