package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Equipment is a bookable item owned by a studio. HourlyRate is informational
// and is not part of a booking's total.
type Equipment struct {
	ID         int64           `json:"id"`
	StudioID   int64           `json:"studio_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty"`
	Quantity   int             `json:"quantity"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
	CreatedAt  time.Time       `json:"created_at"`
}
