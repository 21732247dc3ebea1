package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StaffMember links a staff user to exactly one studio. The same record is
// the bookable staff resource referenced by bookings.
type StaffMember struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	StudioID   int64           `json:"studio_id"`
	Position   string          `json:"position,omitempty"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	CreatedAt  time.Time       `json:"created_at"`
}
