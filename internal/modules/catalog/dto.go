package catalog

import (
	"studiobooking/internal/domain"

	"github.com/shopspring/decimal"
)

// ---------- STUDIO ----------

type CreateStudioRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
}

// ---------- ROOMS ----------

type CreateRoomRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Capacity    int             `json:"capacity" validate:"required,gt=0"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

// ---------- EQUIPMENT ----------

type CreateEquipmentRequest struct {
	Name       string          `json:"name" validate:"required"`
	Category   string          `json:"category,omitempty"`
	Quantity   int             `json:"quantity" validate:"required,gt=0"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// ---------- STAFF ----------

// AddStaffRequest names the staff account either by id or by email.
type AddStaffRequest struct {
	UserID     int64           `json:"user_id" validate:"required_without=Email"`
	Email      string          `json:"email" validate:"omitempty,email"`
	Position   string          `json:"position"`
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// RoomDetails is a room together with the equipment its studio can lend.
type RoomDetails struct {
	Room      *domain.Room       `json:"room"`
	Equipment []domain.Equipment `json:"equipment"`
}
