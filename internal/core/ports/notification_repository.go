package ports

import (
	"context"

	"github.com/gestaoprojetos/workflow-system/internal/core/domain"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListUnread(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// UnreadFeed streams a user's unread-notification count until ctx ends.
// The channel is closed when the subscription stops.
type UnreadFeed interface {
	Subscribe(ctx context.Context, userID string) (<-chan int64, error)
}

// UnreadPublisher pushes a new unread count to live subscribers.
type UnreadPublisher interface {
	PublishUnread(ctx context.Context, userID string, count int64) error
}
