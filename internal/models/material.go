package models

import "time"

// Material: stock tracked by the inventory ledger. Quantity has no floor,
// negative values mean the material was oversold.
type Material struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Quantity  float64   `gorm:"not null;default:0" json:"quantity"`
	Unit      string    `gorm:"size:20;not null" json:"unit"`
	IsAuto    bool      `gorm:"not null" json:"is_auto"` // debited by recipes
	MinAlert  float64   `gorm:"not null;default:0" json:"min_alert"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m Material) IsLow() bool {
	return m.Quantity <= m.MinAlert
}
