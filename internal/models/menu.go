package models

import "time"

type ItemCategory string

const (
	CategoryFood  ItemCategory = "FOOD"
	CategoryDrink ItemCategory = "DRINK"
	CategorySnack ItemCategory = "SNACK"
)

func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryFood, CategoryDrink, CategorySnack:
		return true
	}
	return false
}

// RecipeIngredient: stock consumed every time the menu entry is ordered
type RecipeIngredient struct {
	MaterialID string  `json:"material_id"`
	Amount     float64 `json:"amount"`
}

type MenuEntry struct {
	ID        string             `gorm:"primaryKey;size:64" json:"id"`
	Name      string             `gorm:"size:100;not null" json:"name"`
	Price     int64              `gorm:"not null" json:"price"`
	Category  ItemCategory       `gorm:"size:10;not null" json:"category"`
	Recipe    []RecipeIngredient `gorm:"serializer:json;type:text" json:"recipe,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
