package models

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleWaiter    UserRole = "WAITER"
	RoleCook      UserRole = "COOK"
	RoleBartender UserRole = "BARTENDER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleWaiter, RoleCook, RoleBartender:
		return true
	}
	return false
}

// User is a staff member. PinHash holds a bcrypt hash of the login PIN.
type User struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Role      UserRole  `gorm:"size:20;not null;index" json:"role"`
	Email     *string   `gorm:"size:100" json:"email,omitempty"`
	PinHash   string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
