package notification

import (
	"context"
	"errors"
	"time"

	"studiobooking/internal/domain"
)

var ErrNotFound = errors.New("notification not found")

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type Inbox struct {
	Notifications []domain.Notification `json:"notifications"`
	Total         int64                 `json:"total"`
	UnreadCount   int64                 `json:"unread_count"`
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) (*Inbox, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	list, total, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Inbox{Notifications: list, Total: total, UnreadCount: unread}, nil
}

func (s *Service) MarkAsRead(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	n, err := s.repo.MarkRead(ctx, userID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrNotFound
	}
	return n, err
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// PurgeRead deletes notifications that were read more than keep ago.
// Unread notifications are kept regardless of age.
func (s *Service) PurgeRead(ctx context.Context, now time.Time, keep time.Duration) (int64, error) {
	return s.repo.DeleteReadBefore(ctx, now.UTC().Add(-keep))
}
