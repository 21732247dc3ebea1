package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID          int64           `json:"id"`
	RoomID      int64           `json:"room_id"`
	StudioID    int64           `json:"studio_id"`
	ClientID    int64           `json:"client_id"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Status      BookingStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`

	DepositAmount decimal.NullDecimal `json:"deposit_amount"`
	DepositPaid   bool                `json:"deposit_paid"`

	Notes              string     `json:"notes,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Equipment []BookingEquipment `json:"equipment,omitempty"`
	Staff     []BookingStaff     `json:"staff,omitempty"`
}

func (b *Booking) Window() Window {
	return Window{Start: b.StartTime, End: b.EndTime}
}

type BookingEquipment struct {
	EquipmentID int64 `json:"equipment_id"`
	Quantity    int   `json:"quantity"`
}

type BookingStaff struct {
	StaffID int64 `json:"staff_id"`
}
