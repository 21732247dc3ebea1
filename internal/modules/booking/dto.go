package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"studiobooking/internal/domain"
)

type EquipmentItem struct {
	EquipmentID int64 `json:"equipment_id" binding:"required,gt=0"`
	Quantity    int   `json:"quantity" binding:"omitempty,gte=1"`
}

type CreateBookingRequest struct {
	RoomID    int64           `json:"room_id" binding:"required"`
	StartTime time.Time       `json:"start_time" binding:"required"`
	EndTime   time.Time       `json:"end_time" binding:"required"`
	Equipment []EquipmentItem `json:"equipment" binding:"omitempty,dive"`
	StaffIDs  []int64         `json:"staff_ids"`
	Notes     string          `json:"notes"`
}

// UpdateBookingRequest is a partial update; absent fields stay unchanged.
// Reason is only read when Status moves the booking to cancelled.
type UpdateBookingRequest struct {
	Notes     *string               `json:"notes,omitempty"`
	Equipment *[]EquipmentItem      `json:"equipment,omitempty"`
	StaffIDs  *[]int64              `json:"staff_ids,omitempty"`
	Status    *domain.BookingStatus `json:"status,omitempty"`
	Reason    string                `json:"reason,omitempty"`
}

func (r UpdateBookingRequest) empty() bool {
	return r.Notes == nil && r.Equipment == nil && r.StaffIDs == nil && r.Status == nil
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ListBookingsRequest struct {
	RoomID   int64     `form:"room_id"`
	StudioID int64     `form:"studio_id"`
	Status   string    `form:"status"`
	From     time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit    int       `form:"limit"`
	Offset   int       `form:"offset"`
}

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type BookingResponse struct {
	ID                 int64                     `json:"id"`
	RoomID             int64                     `json:"room_id"`
	StudioID           int64                     `json:"studio_id"`
	ClientID           int64                     `json:"client_id"`
	StartTime          time.Time                 `json:"start_time"`
	EndTime            time.Time                 `json:"end_time"`
	Status             domain.BookingStatus      `json:"status"`
	TotalAmount        string                    `json:"total_amount"`
	DepositAmount      *string                   `json:"deposit_amount"`
	DepositPaid        bool                      `json:"deposit_paid"`
	Notes              string                    `json:"notes,omitempty"`
	CancellationReason string                    `json:"cancellation_reason,omitempty"`
	CancelledBy        *int64                    `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time                `json:"cancelled_at,omitempty"`
	Equipment          []domain.BookingEquipment `json:"equipment"`
	StaffIDs           []int64                   `json:"staff_ids"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	out := BookingResponse{
		ID:                 b.ID,
		RoomID:             b.RoomID,
		StudioID:           b.StudioID,
		ClientID:           b.ClientID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Status:             b.Status,
		TotalAmount:        b.TotalAmount.StringFixed(2),
		DepositPaid:        b.DepositPaid,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CancelledBy:        b.CancelledBy,
		CancelledAt:        b.CancelledAt,
		Equipment:          make([]domain.BookingEquipment, 0, len(b.Equipment)),
		StaffIDs:           make([]int64, 0, len(b.Staff)),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.DepositAmount.Valid {
		v := b.DepositAmount.Decimal.StringFixed(2)
		out.DepositAmount = &v
	}
	out.Equipment = append(out.Equipment, b.Equipment...)
	for _, s := range b.Staff {
		out.StaffIDs = append(out.StaffIDs, s.StaffID)
	}
	return out
}
