package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"studiobooking/internal/domain"
	"studiobooking/internal/modules/booking"
)

// BookingRepository is the gorm-backed booking.Store.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64               `gorm:"column:id;primaryKey"`
	RoomID             int64               `gorm:"column:room_id;not null;index:idx_bookings_room_window,priority:1"`
	StudioID           int64               `gorm:"column:studio_id;not null;index"`
	ClientID           int64               `gorm:"column:client_id;not null;index"`
	StartTime          time.Time           `gorm:"column:start_time;not null;index:idx_bookings_room_window,priority:2"`
	EndTime            time.Time           `gorm:"column:end_time;not null;check:chk_bookings_window,end_time > start_time"`
	Status             string              `gorm:"column:status;type:varchar(16);not null;index"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DepositAmount      decimal.NullDecimal `gorm:"column:deposit_amount;type:numeric(12,2)"`
	DepositPaid        bool                `gorm:"column:deposit_paid;not null;default:false"`
	Notes              *string             `gorm:"column:notes;type:text"`
	CancellationReason *string             `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *int64              `gorm:"column:cancelled_by"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	CreatedAt          time.Time           `gorm:"column:created_at"`
	UpdatedAt          time.Time           `gorm:"column:updated_at"`

	Equipment []bookingEquipmentModel `gorm:"foreignKey:BookingID"`
	Staff     []bookingStaffModel     `gorm:"foreignKey:BookingID"`
}

func (bookingModel) TableName() string { return "bookings" }

type bookingEquipmentModel struct {
	BookingID   int64 `gorm:"column:booking_id;primaryKey"`
	EquipmentID int64 `gorm:"column:equipment_id;primaryKey;index"`
	Quantity    int   `gorm:"column:quantity;not null;default:1"`
}

func (bookingEquipmentModel) TableName() string { return "booking_equipment" }

type bookingStaffModel struct {
	BookingID int64 `gorm:"column:booking_id;primaryKey"`
	StaffID   int64 `gorm:"column:staff_id;primaryKey;index"`
}

func (bookingStaffModel) TableName() string { return "booking_staff" }

func toDomainBooking(m bookingModel) *domain.Booking {
	b := &domain.Booking{
		ID:                 m.ID,
		RoomID:             m.RoomID,
		StudioID:           m.StudioID,
		ClientID:           m.ClientID,
		StartTime:          m.StartTime.UTC(),
		EndTime:            m.EndTime.UTC(),
		Status:             domain.BookingStatus(m.Status),
		TotalAmount:        m.TotalAmount,
		DepositAmount:      m.DepositAmount,
		DepositPaid:        m.DepositPaid,
		Notes:              derefString(m.Notes),
		CancellationReason: derefString(m.CancellationReason),
		CancelledBy:        m.CancelledBy,
		CancelledAt:        m.CancelledAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		Equipment:          make([]domain.BookingEquipment, 0, len(m.Equipment)),
		Staff:              make([]domain.BookingStaff, 0, len(m.Staff)),
	}
	for _, e := range m.Equipment {
		b.Equipment = append(b.Equipment, domain.BookingEquipment{EquipmentID: e.EquipmentID, Quantity: e.Quantity})
	}
	for _, s := range m.Staff {
		b.Staff = append(b.Staff, domain.BookingStaff{StaffID: s.StaffID})
	}
	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	m := bookingModel{
		ID:                 b.ID,
		RoomID:             b.RoomID,
		StudioID:           b.StudioID,
		ClientID:           b.ClientID,
		StartTime:          b.StartTime.UTC(),
		EndTime:            b.EndTime.UTC(),
		Status:             string(b.Status),
		TotalAmount:        b.TotalAmount,
		DepositAmount:      b.DepositAmount,
		DepositPaid:        b.DepositPaid,
		Notes:              nullableString(b.Notes),
		CancellationReason: nullableString(b.CancellationReason),
		CancelledBy:        b.CancelledBy,
		CancelledAt:        b.CancelledAt,
	}
	m.Equipment = equipmentRows(0, b.Equipment)
	m.Staff = staffRows(0, b.Staff)
	return m
}

func equipmentRows(bookingID int64, items []domain.BookingEquipment) []bookingEquipmentModel {
	out := make([]bookingEquipmentModel, 0, len(items))
	for _, it := range items {
		out = append(out, bookingEquipmentModel{BookingID: bookingID, EquipmentID: it.EquipmentID, Quantity: it.Quantity})
	}
	return out
}

func staffRows(bookingID int64, items []domain.BookingStaff) []bookingStaffModel {
	out := make([]bookingStaffModel, 0, len(items))
	for _, it := range items {
		out = append(out, bookingStaffModel{BookingID: bookingID, StaffID: it.StaffID})
	}
	return out
}

// Atomic runs fn inside one transaction. On postgres the transaction is
// serializable, so two concurrent check-then-insert sequences for the same
// resource cannot both commit.
func (r *BookingRepository) Atomic(ctx context.Context, fn func(tx booking.Store) error) error {
	var opts []*sql.TxOptions
	if r.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingRepository{db: tx})
	}, opts...)
	return translate(err)
}

func (r *BookingRepository) FindOverlapping(
	ctx context.Context,
	kind domain.ResourceKind,
	resourceID int64,
	w domain.Window,
	excludeID int64,
) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).
		Model(&bookingModel{}).
		Select("bookings.*").
		Where("bookings.status <> ?", string(domain.BookingCancelled)).
		Where("bookings.start_time < ? AND bookings.end_time > ?", w.End.UTC(), w.Start.UTC())

	switch kind {
	case domain.ResourceRoom:
		q = q.Where("bookings.room_id = ?", resourceID)
	case domain.ResourceEquipment:
		q = q.Joins("JOIN booking_equipment be ON be.booking_id = bookings.id").
			Where("be.equipment_id = ?", resourceID)
	case domain.ResourceStaff:
		q = q.Joins("JOIN booking_staff bs ON bs.booking_id = bookings.id").
			Where("bs.staff_id = ?", resourceID)
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	if excludeID != 0 {
		q = q.Where("bookings.id <> ?", excludeID)
	}

	var rows []bookingModel
	if err := q.Order("bookings.start_time").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// InsertBooking stores b with its equipment and staff rows and fills in the
// generated ID and timestamps.
func (r *BookingRepository) InsertBooking(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Preload("Staff").
		First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) UpdateBooking(ctx context.Context, id int64, patch domain.BookingPatch) error {
	if patch.Empty() {
		return nil
	}

	cols := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Notes != nil {
		cols["notes"] = nullableString(*patch.Notes)
	}
	if patch.Status != nil {
		cols["status"] = string(*patch.Status)
	}
	if patch.CancellationReason != nil {
		cols["cancellation_reason"] = nullableString(*patch.CancellationReason)
	}
	if patch.CancelledBy != nil {
		cols["cancelled_by"] = *patch.CancelledBy
	}
	if patch.CancelledAt != nil {
		cols["cancelled_at"] = patch.CancelledAt.UTC()
	}
	if patch.DepositAmount != nil {
		cols["deposit_amount"] = decimal.NewNullDecimal(*patch.DepositAmount)
	}
	if patch.DepositPaid != nil {
		cols["deposit_paid"] = *patch.DepositPaid
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookingModel{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		if patch.Equipment != nil {
			if err := tx.Where("booking_id = ?", id).Delete(&bookingEquipmentModel{}).Error; err != nil {
				return err
			}
			if rows := equipmentRows(id, *patch.Equipment); len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		if patch.Staff != nil {
			if err := tx.Where("booking_id = ?", id).Delete(&bookingStaffModel{}).Error; err != nil {
				return err
			}
			if rows := staffRows(id, *patch.Staff); len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	return translate(err)
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", id).Delete(&bookingEquipmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("booking_id = ?", id).Delete(&bookingStaffModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&bookingModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return translate(err)
}

// ListBookings returns one page of bookings, most recent start first, plus
// the total number of matches.
func (r *BookingRepository) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})

	if f.ParticipantID != 0 || f.StaffStudioID != 0 {
		owned := r.db.Model(&studioModel{}).Select("id").Where("owner_id = ?", f.ParticipantID)
		scope := r.db.Where("bookings.client_id = ?", f.ParticipantID).
			Or("bookings.studio_id IN (?)", owned)
		if f.StaffStudioID != 0 {
			scope = scope.Or("bookings.studio_id = ?", f.StaffStudioID)
		}
		q = q.Where(scope)
	}
	if f.RoomID != 0 {
		q = q.Where("bookings.room_id = ?", f.RoomID)
	}
	if f.StudioID != 0 {
		q = q.Where("bookings.studio_id = ?", f.StudioID)
	}
	if f.Status != "" {
		q = q.Where("bookings.status = ?", string(f.Status))
	}
	if f.From != nil {
		q = q.Where("bookings.end_time > ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("bookings.start_time < ?", f.To.UTC())
	}
	if f.EndBefore != nil {
		q = q.Where("bookings.end_time <= ?", f.EndBefore.UTC())
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	page := q.Session(&gorm.Session{}).
		Preload("Equipment").
		Preload("Staff").
		Order("bookings.start_time DESC").
		Order("bookings.id DESC")
	if f.Limit > 0 {
		page = page.Limit(f.Limit).Offset(f.Offset)
	}

	var rows []bookingModel
	if err := page.Find(&rows).Error; err != nil {
		return nil, 0, translate(err)
	}
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, total, nil
}
