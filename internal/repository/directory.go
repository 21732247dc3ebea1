package repository

import (
	"context"

	"gorm.io/gorm"

	"studiobooking/internal/domain"
)

// Directory is the read side of users, studios, rooms, equipment and staff
// used by the booking engine.
type Directory struct {
	users     *UserRepository
	studios   *StudioRepository
	rooms     *RoomRepository
	equipment *EquipmentRepository
	staff     *StaffRepository
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{
		users:     NewUserRepository(db),
		studios:   NewStudioRepository(db),
		rooms:     NewRoomRepository(db),
		equipment: NewEquipmentRepository(db),
		staff:     NewStaffRepository(db),
	}
}

func (d *Directory) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	return d.rooms.GetByID(ctx, id)
}

func (d *Directory) GetStudio(ctx context.Context, id int64) (*domain.Studio, error) {
	return d.studios.GetByID(ctx, id)
}

func (d *Directory) GetEquipment(ctx context.Context, ids []int64) ([]domain.Equipment, error) {
	return d.equipment.GetByIDs(ctx, ids)
}

func (d *Directory) GetStaff(ctx context.Context, ids []int64) ([]domain.StaffMember, error) {
	return d.staff.GetByIDs(ctx, ids)
}

func (d *Directory) GetStaffMembership(ctx context.Context, userID int64) (int64, bool, error) {
	return d.staff.StudioOf(ctx, userID)
}

func (d *Directory) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return d.users.GetByID(ctx, id)
}
