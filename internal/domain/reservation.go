package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ResourceKind string

const (
	ResourceRoom      ResourceKind = "room"
	ResourceEquipment ResourceKind = "equipment"
	ResourceStaff     ResourceKind = "staff"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Overlaps reports whether two half-open windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// BookingFilter narrows ListBookings. Zero values mean "no constraint".
// ParticipantID matches bookings the user made or that belong to a studio
// the user owns; StaffStudioID additionally admits one studio's bookings.
type BookingFilter struct {
	ParticipantID int64
	StaffStudioID int64

	RoomID    int64
	StudioID  int64
	Status    BookingStatus
	From      *time.Time
	To        *time.Time
	EndBefore *time.Time

	Limit  int
	Offset int
}

// BookingPatch lists the columns UpdateBooking writes; nil fields are left alone.
// Equipment and Staff replace the whole association when set.
type BookingPatch struct {
	Notes              *string
	Status             *BookingStatus
	Equipment          *[]BookingEquipment
	Staff              *[]BookingStaff
	CancellationReason *string
	CancelledBy        *int64
	CancelledAt        *time.Time
	DepositAmount      *decimal.Decimal
	DepositPaid        *bool
}

func (p BookingPatch) Empty() bool {
	return p.Notes == nil && p.Status == nil && p.Equipment == nil && p.Staff == nil &&
		p.CancellationReason == nil && p.CancelledBy == nil && p.CancelledAt == nil &&
		p.DepositAmount == nil && p.DepositPaid == nil
}
