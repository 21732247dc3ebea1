package domain

import "time"

type UserRole string

const (
	RoleMusician    UserRole = "musician"
	RoleStudioOwner UserRole = "studio_owner"
	RoleStaff       UserRole = "staff"
	RoleAdmin       UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleMusician, RoleStudioOwner, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
