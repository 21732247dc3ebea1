package catalog

import (
	"context"

	"studiobooking/internal/domain"
	"studiobooking/internal/repository"
)

type StudioStore interface {
	Create(ctx context.Context, s *domain.Studio) error
	GetAll(ctx context.Context, f repository.StudioFilters) ([]domain.Studio, int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Studio, error)
	GetWithRooms(ctx context.Context, id int64) (*domain.Studio, error)
}

type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
}

type EquipmentStore interface {
	Create(ctx context.Context, e *domain.Equipment) error
	ListByStudio(ctx context.Context, studioID int64) ([]domain.Equipment, error)
}

type StaffStore interface {
	Create(ctx context.Context, s *domain.StaffMember) error
	ListByStudio(ctx context.Context, studioID int64) ([]domain.StaffMember, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
