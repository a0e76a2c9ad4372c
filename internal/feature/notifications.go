package feature

import (
	"context"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
	"github.com/Tom21-xd/Uceva-sub002/internal/state"
)

// NotificationSource inbox endpoints (api.NotificationService).
type NotificationSource interface {
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context) error
}

// NotificationsState snapshot of the inbox.
type NotificationsState struct {
	Items     state.Resource[[]models.Notification]
	Unread    int
	ActionErr string
}

var notificationsLens = state.Lens[NotificationsState, []models.Notification]{
	Get: func(s NotificationsState) state.Resource[[]models.Notification] { return s.Items },
	Set: func(s NotificationsState, r state.Resource[[]models.Notification]) NotificationsState { s.Items = r; return s },
}

// Notifications in-app inbox, also fed by push messages.
type Notifications struct {
	holder[NotificationsState]
	src NotificationSource
}

func NewNotifications(parent context.Context, src NotificationSource, logger *zap.Logger) *Notifications {
	return &Notifications{holder: newHolder(parent, NotificationsState{}, logger, "notifications"), src: src}
}

func (n *Notifications) Refresh(ctx context.Context) error {
	return load(ctx, n.holder, notificationsLens, "notifications", n.src.List, func(s NotificationsState, items []models.Notification) NotificationsState {
		s.Unread = countUnread(items)
		return s
	})
}

// Push prepends a notification received outside a fetch (push ingress).
func (n *Notifications) Push(item models.Notification) {
	n.store.Update(func(s NotificationsState) NotificationsState {
		items := append([]models.Notification{item}, s.Items.Data...)
		s.Items.Data = items
		s.Unread = countUnread(items)
		return s
	})
}

// MarkRead marks one notification read on the backend, then locally.
func (n *Notifications) MarkRead(ctx context.Context, id int) error {
	return n.mark(ctx, "mark_read", func(ctx context.Context) error { return n.src.MarkRead(ctx, id) },
		func(item models.Notification) bool { return item.ID == id })
}

// MarkAllRead marks the whole inbox read.
func (n *Notifications) MarkAllRead(ctx context.Context) error {
	return n.mark(ctx, "mark_all_read", n.src.MarkAllRead,
		func(models.Notification) bool { return true })
}

func (n *Notifications) mark(ctx context.Context, action string, call func(context.Context) error, match func(models.Notification) bool) error {
	bound, cancel := n.scope.Bind(ctx)
	defer cancel()
	if err := call(bound); err != nil {
		n.logger.Error("Notification action failed", zap.String("action", action), zap.Error(err))
		n.store.Update(func(s NotificationsState) NotificationsState {
			s.ActionErr = api.UserMessage(err)
			return s
		})
		return err
	}
	n.store.Update(func(s NotificationsState) NotificationsState {
		items := slices.Clone(s.Items.Data)
		for i := range items {
			if match(items[i]) {
				items[i].Read = true
			}
		}
		s.Items.Data = items
		s.Unread = countUnread(items)
		s.ActionErr = ""
		return s
	})
	return nil
}

func countUnread(items []models.Notification) int {
	return lo.CountBy(items, func(n models.Notification) bool { return !n.Read })
}
