package booking

import "studiobooking/internal/domain"

type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
	ActionDelete  Action = "delete"
	ActionDeposit Action = "deposit"
)

// Actor is the authenticated caller of every engine operation.
type Actor struct {
	UserID int64
	Role   domain.UserRole
}

// Relation is how an actor stands to one booking. An actor can hold several,
// e.g. an owner booking a room in their own studio is both client and owner.
type Relation uint8

const (
	RelClient Relation = 1 << iota
	RelOwner
	RelStaff

	RelNone Relation = 0
)

func (r Relation) Has(o Relation) bool { return r&o != 0 }

// manager is true for the studio side of the booking.
func (r Relation) manager() bool { return r.Has(RelOwner | RelStaff) }

// CanAct is the single capability check for booking actions.
func CanAct(rel Relation, b *domain.Booking, action Action) bool {
	switch action {
	case ActionCreate:
		return true
	case ActionView, ActionCancel:
		return rel.Has(RelClient) || rel.manager()
	case ActionUpdate:
		if rel.manager() {
			return true
		}
		return rel.Has(RelClient) && b.Status == domain.BookingPending
	case ActionConfirm, ActionDeposit:
		return rel.manager()
	case ActionDelete:
		return rel.Has(RelClient) && b.Status == domain.BookingPending
	}
	return false
}

// CanPatch checks the field-level rules of ActionUpdate: a client may only
// touch notes and equipment.
func CanPatch(rel Relation, req UpdateBookingRequest) bool {
	if rel.manager() {
		return true
	}
	if !rel.Has(RelClient) {
		return false
	}
	return req.Status == nil && req.StaffIDs == nil
}
