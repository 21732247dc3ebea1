package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studiobooking/internal/database"
	"studiobooking/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

// fixture is one owner with one studio, two rooms, a mic and an engineer,
// plus a client and a stranger.
type fixture struct {
	owner, client, stranger, staffUser *domain.User
	studio, otherStudio                *domain.Studio
	roomA, roomB                       *domain.Room
	mic                                *domain.Equipment
	engineer                           *domain.StaffMember
}

func seed(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()
	ctx := context.Background()
	users := NewUserRepository(db)
	f := &fixture{}

	mkUser := func(email string, role domain.UserRole) *domain.User {
		u := &domain.User{Email: email, Name: email, Role: role, PasswordHash: "x"}
		require.NoError(t, users.Create(ctx, u))
		return u
	}
	f.owner = mkUser("owner@studio.io", domain.RoleStudioOwner)
	f.client = mkUser("band@mail.io", domain.RoleMusician)
	f.stranger = mkUser("nobody@mail.io", domain.RoleMusician)
	f.staffUser = mkUser("eng@studio.io", domain.RoleStaff)

	studios := NewStudioRepository(db)
	f.studio = &domain.Studio{OwnerID: f.owner.ID, Name: "Basement", City: "Almaty"}
	require.NoError(t, studios.Create(ctx, f.studio))
	f.otherStudio = &domain.Studio{OwnerID: f.stranger.ID, Name: "Attic", City: "Astana"}
	require.NoError(t, studios.Create(ctx, f.otherStudio))

	rooms := NewRoomRepository(db)
	f.roomA = &domain.Room{StudioID: f.studio.ID, Name: "A", Capacity: 4, HourlyRate: decimal.NewFromInt(50), IsActive: true}
	require.NoError(t, rooms.Create(ctx, f.roomA))
	f.roomB = &domain.Room{StudioID: f.studio.ID, Name: "B", Capacity: 2, HourlyRate: decimal.NewFromInt(30), IsActive: false}
	require.NoError(t, rooms.Create(ctx, f.roomB))

	f.mic = &domain.Equipment{StudioID: f.studio.ID, Name: "SM58", Quantity: 2}
	require.NoError(t, NewEquipmentRepository(db).Create(ctx, f.mic))

	f.engineer = &domain.StaffMember{UserID: f.staffUser.ID, StudioID: f.studio.ID, Position: "engineer"}
	require.NoError(t, NewStaffRepository(db).Create(ctx, f.engineer))
	return f
}

var base = time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func (f *fixture) booking(start, end time.Time) *domain.Booking {
	return &domain.Booking{
		RoomID:      f.roomA.ID,
		StudioID:    f.studio.ID,
		ClientID:    f.client.ID,
		StartTime:   start,
		EndTime:     end,
		Status:      domain.BookingPending,
		TotalAmount: decimal.NewFromInt(100),
	}
}
