package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Room struct {
	ID          int64           `json:"id"`
	StudioID    int64           `json:"studio_id"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description,omitempty"`
	Capacity    int             `json:"capacity"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
