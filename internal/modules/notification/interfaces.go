package notification

import (
	"context"
	"time"

	"studiobooking/internal/domain"
)

// Repository stores in-app notifications.
type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]domain.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Broadcaster pushes a stored notification to the recipient's live
// connections, wherever they are.
type Broadcaster interface {
	Publish(ctx context.Context, n *domain.Notification) error
}
