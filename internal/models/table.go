package models

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusReady     OrderStatus = "READY"
	StatusDelivered OrderStatus = "DELIVERED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReady, StatusDelivered:
		return true
	}
	return false
}

// OrderLine is a snapshot of a menu entry taken when it was ordered.
type OrderLine struct {
	ID          string       `gorm:"primaryKey;size:64" json:"id"`
	TableID     string       `gorm:"size:64;index;not null" json:"-"`
	Position    int          `gorm:"not null" json:"-"`
	MenuEntryID string       `gorm:"size:64;not null" json:"menu_entry_id"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	Notes       string       `gorm:"size:255" json:"notes"`
	Status      OrderStatus  `gorm:"size:10;not null;index" json:"status"`
	Category    ItemCategory `gorm:"size:10;not null" json:"category"`
	Price       int64        `gorm:"not null" json:"price"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Table exists only while open; closing it replaces it with a SaleRecord.
type Table struct {
	ID              string      `gorm:"primaryKey;size:64" json:"id"`
	Number          string      `gorm:"size:50;not null;uniqueIndex" json:"number"` // "Mesa 5"
	HasBillar       bool        `gorm:"not null;default:false" json:"has_billar"`
	BillarStartTime *time.Time  `json:"billar_start_time,omitempty"`
	BillarBlocks    int         `gorm:"not null;default:0" json:"billar_blocks"`
	Items           []OrderLine `gorm:"foreignKey:TableID;constraint:OnDelete:CASCADE" json:"items"`
	WaiterID        *string     `gorm:"size:64" json:"waiter_id,omitempty"`
	WaiterName      *string     `gorm:"size:100" json:"waiter_name,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
