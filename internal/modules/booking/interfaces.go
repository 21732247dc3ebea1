package booking

import (
	"context"

	"studiobooking/internal/domain"
)

// Store persists bookings. Atomic runs fn against a transactional view of the
// store; implementations must make the conflict checks and the write inside
// fn behave as one serializable unit, or reject the write with
// domain.ErrOverlap.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Store) error) error
	// FindOverlapping returns non-cancelled bookings reserving the resource
	// inside w. excludeID of 0 excludes nothing.
	FindOverlapping(ctx context.Context, kind domain.ResourceKind, resourceID int64, w domain.Window, excludeID int64) ([]domain.Booking, error)
	InsertBooking(ctx context.Context, b *domain.Booking) error
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, id int64, patch domain.BookingPatch) error
	DeleteBooking(ctx context.Context, id int64) error
	ListBookings(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int64, error)
}

// Directory is the read-only view of rooms, studios, equipment, staff and users.
// Single-record lookups return domain.ErrNotFound when absent; the batch
// lookups return only the records that exist.
type Directory interface {
	GetRoom(ctx context.Context, id int64) (*domain.Room, error)
	GetStudio(ctx context.Context, id int64) (*domain.Studio, error)
	GetEquipment(ctx context.Context, ids []int64) ([]domain.Equipment, error)
	GetStaff(ctx context.Context, ids []int64) ([]domain.StaffMember, error)
	GetStaffMembership(ctx context.Context, userID int64) (studioID int64, ok bool, err error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// Notifier delivers booking events. Calls must not block; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, event string, recipient int64, payload map[string]any) error
}
