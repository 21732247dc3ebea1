package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiobooking/internal/domain"
	"studiobooking/internal/modules/booking"
)

func ids(bs []domain.Booking) []int64 {
	out := make([]int64, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}

func TestBookingRepository_InsertAndGet(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	b := f.booking(at(10, 0), at(12, 0))
	b.Notes = "bring cables"
	b.Equipment = []domain.BookingEquipment{{EquipmentID: f.mic.ID, Quantity: 1}}
	b.Staff = []domain.BookingStaff{{StaffID: f.engineer.ID}}
	require.NoError(t, repo.InsertBooking(ctx, b))
	require.NotZero(t, b.ID)

	got, err := repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(at(10, 0)))
	assert.True(t, got.EndTime.Equal(at(12, 0)))
	assert.Equal(t, domain.BookingPending, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(100)))
	assert.False(t, got.DepositAmount.Valid)
	assert.Equal(t, "bring cables", got.Notes)
	assert.Equal(t, []domain.BookingEquipment{{EquipmentID: f.mic.ID, Quantity: 1}}, got.Equipment)
	assert.Equal(t, []domain.BookingStaff{{StaffID: f.engineer.ID}}, got.Staff)

	_, err = repo.GetBooking(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingRepository_FindOverlapping(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	live := f.booking(at(10, 0), at(12, 0))
	live.Equipment = []domain.BookingEquipment{{EquipmentID: f.mic.ID, Quantity: 1}}
	live.Staff = []domain.BookingStaff{{StaffID: f.engineer.ID}}
	require.NoError(t, repo.InsertBooking(ctx, live))

	dead := f.booking(at(14, 0), at(15, 0))
	dead.Status = domain.BookingCancelled
	require.NoError(t, repo.InsertBooking(ctx, dead))

	tests := []struct {
		name    string
		kind    domain.ResourceKind
		id      int64
		w       domain.Window
		exclude int64
		want    []int64
	}{
		{"room overlap", domain.ResourceRoom, f.roomA.ID, domain.Window{Start: at(11, 0), End: at(13, 0)}, 0, []int64{live.ID}},
		{"room adjacent before", domain.ResourceRoom, f.roomA.ID, domain.Window{Start: at(9, 0), End: at(10, 0)}, 0, []int64{}},
		{"room adjacent after", domain.ResourceRoom, f.roomA.ID, domain.Window{Start: at(12, 0), End: at(13, 0)}, 0, []int64{}},
		{"room contains", domain.ResourceRoom, f.roomA.ID, domain.Window{Start: at(8, 0), End: at(20, 0)}, 0, []int64{live.ID}},
		{"other room", domain.ResourceRoom, f.roomB.ID, domain.Window{Start: at(10, 0), End: at(12, 0)}, 0, []int64{}},
		{"cancelled ignored", domain.ResourceRoom, f.roomA.ID, domain.Window{Start: at(14, 0), End: at(15, 0)}, 0, []int64{}},
		{"excluded self", domain.ResourceRoom, f.roomA.ID, domain.Window{Start: at(10, 0), End: at(12, 0)}, live.ID, []int64{}},
		{"equipment", domain.ResourceEquipment, f.mic.ID, domain.Window{Start: at(11, 30), End: at(11, 45)}, 0, []int64{live.ID}},
		{"staff", domain.ResourceStaff, f.engineer.ID, domain.Window{Start: at(9, 0), End: at(10, 1)}, 0, []int64{live.ID}},
		{"staff free", domain.ResourceStaff, f.engineer.ID, domain.Window{Start: at(12, 0), End: at(16, 0)}, 0, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindOverlapping(ctx, tt.kind, tt.id, tt.w, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := repo.FindOverlapping(ctx, domain.ResourceKind("desk"), 1, domain.Window{Start: at(1, 0), End: at(2, 0)}, 0)
	assert.Error(t, err)
}

func TestBookingRepository_UpdateReplacesAssociations(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	b := f.booking(at(10, 0), at(11, 0))
	b.Equipment = []domain.BookingEquipment{{EquipmentID: f.mic.ID, Quantity: 2}}
	require.NoError(t, repo.InsertBooking(ctx, b))

	notes := "late start"
	status := domain.BookingCancelled
	reason := "sick"
	by := f.client.ID
	when := at(9, 0)
	staff := []domain.BookingStaff{{StaffID: f.engineer.ID}}
	none := []domain.BookingEquipment{}
	require.NoError(t, repo.UpdateBooking(ctx, b.ID, domain.BookingPatch{
		Notes:              &notes,
		Status:             &status,
		CancellationReason: &reason,
		CancelledBy:        &by,
		CancelledAt:        &when,
		Equipment:          &none,
		Staff:              &staff,
	}))

	got, err := repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "late start", got.Notes)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.Equal(t, "sick", got.CancellationReason)
	require.NotNil(t, got.CancelledBy)
	assert.Equal(t, f.client.ID, *got.CancelledBy)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, got.CancelledAt.Equal(when))
	assert.Empty(t, got.Equipment)
	assert.Equal(t, staff, got.Staff)

	amount := decimal.RequireFromString("25.50")
	paid := true
	require.NoError(t, repo.UpdateBooking(ctx, b.ID, domain.BookingPatch{DepositAmount: &amount, DepositPaid: &paid}))
	got, err = repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, got.DepositAmount.Valid)
	assert.True(t, got.DepositAmount.Decimal.Equal(amount))
	assert.True(t, got.DepositPaid)

	assert.ErrorIs(t, repo.UpdateBooking(ctx, 9999, domain.BookingPatch{Notes: &notes}), domain.ErrNotFound)
	assert.NoError(t, repo.UpdateBooking(ctx, 9999, domain.BookingPatch{}))
}

func TestBookingRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	b := f.booking(at(10, 0), at(11, 0))
	b.Equipment = []domain.BookingEquipment{{EquipmentID: f.mic.ID, Quantity: 1}}
	b.Staff = []domain.BookingStaff{{StaffID: f.engineer.ID}}
	require.NoError(t, repo.InsertBooking(ctx, b))

	require.NoError(t, repo.DeleteBooking(ctx, b.ID))
	_, err := repo.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var left int64
	require.NoError(t, db.Model(&bookingEquipmentModel{}).Where("booking_id = ?", b.ID).Count(&left).Error)
	assert.Zero(t, left)
	require.NoError(t, db.Model(&bookingStaffModel{}).Where("booking_id = ?", b.ID).Count(&left).Error)
	assert.Zero(t, left)

	assert.ErrorIs(t, repo.DeleteBooking(ctx, b.ID), domain.ErrNotFound)
}

func TestBookingRepository_ListScope(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	first := f.booking(at(8, 0), at(9, 0))
	require.NoError(t, repo.InsertBooking(ctx, first))
	second := f.booking(at(10, 0), at(11, 0))
	second.Status = domain.BookingConfirmed
	require.NoError(t, repo.InsertBooking(ctx, second))

	foreignRoom := &domain.Room{StudioID: f.otherStudio.ID, Name: "X", Capacity: 1, IsActive: true}
	require.NoError(t, NewRoomRepository(db).Create(ctx, foreignRoom))
	foreign := &domain.Booking{
		RoomID: foreignRoom.ID, StudioID: f.otherStudio.ID, ClientID: f.stranger.ID,
		StartTime: at(10, 0), EndTime: at(11, 0), Status: domain.BookingPending,
	}
	require.NoError(t, repo.InsertBooking(ctx, foreign))

	list := func(filter domain.BookingFilter) ([]int64, int64) {
		t.Helper()
		got, total, err := repo.ListBookings(ctx, filter)
		require.NoError(t, err)
		return ids(got), total
	}

	got, total := list(domain.BookingFilter{ParticipantID: f.client.ID})
	assert.Equal(t, []int64{second.ID, first.ID}, got, "newest start first")
	assert.EqualValues(t, 2, total)

	got, _ = list(domain.BookingFilter{ParticipantID: f.owner.ID})
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, got)

	got, _ = list(domain.BookingFilter{ParticipantID: f.stranger.ID})
	assert.Equal(t, []int64{foreign.ID}, got, "stranger owns the other studio and made the foreign booking")

	got, _ = list(domain.BookingFilter{ParticipantID: f.staffUser.ID, StaffStudioID: f.studio.ID})
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, got)

	got, _ = list(domain.BookingFilter{ParticipantID: f.client.ID, Status: domain.BookingConfirmed})
	assert.Equal(t, []int64{second.ID}, got)

	from := at(9, 0)
	got, _ = list(domain.BookingFilter{ParticipantID: f.client.ID, From: &from})
	assert.Equal(t, []int64{second.ID}, got)

	to := at(9, 0)
	got, _ = list(domain.BookingFilter{ParticipantID: f.client.ID, To: &to})
	assert.Equal(t, []int64{first.ID}, got)

	got, total = list(domain.BookingFilter{ParticipantID: f.client.ID, Limit: 1, Offset: 1})
	assert.Equal(t, []int64{first.ID}, got)
	assert.EqualValues(t, 2, total)

	end := at(9, 30)
	got, _ = list(domain.BookingFilter{Status: domain.BookingConfirmed, EndBefore: &end})
	assert.Empty(t, got)
}

func TestBookingRepository_AtomicRollsBack(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	boom := errors.New("abort")
	err := repo.Atomic(ctx, func(tx booking.Store) error {
		if err := tx.InsertBooking(ctx, f.booking(at(10, 0), at(11, 0))); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, total, err := repo.ListBookings(ctx, domain.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, total)

	err = repo.Atomic(ctx, func(tx booking.Store) error {
		overlapping, err := tx.FindOverlapping(ctx, domain.ResourceRoom, f.roomA.ID, domain.Window{Start: at(10, 0), End: at(11, 0)}, 0)
		if err != nil {
			return err
		}
		require.Empty(t, overlapping)
		return tx.InsertBooking(ctx, f.booking(at(10, 0), at(11, 0)))
	})
	require.NoError(t, err)
	_, total, err = repo.ListBookings(ctx, domain.BookingFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
