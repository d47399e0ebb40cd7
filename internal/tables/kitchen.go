package tables

import (
	"sort"
	"time"

	"bardev-backend/internal/models"
)

// KitchenTicket is one pending line as shown on the preparation screen.
type KitchenTicket struct {
	TableID     string              `json:"table_id"`
	TableNumber string              `json:"table_number"`
	ItemID      string              `json:"item_id"`
	Name        string              `json:"name"`
	Notes       string              `json:"notes"`
	Category    models.ItemCategory `json:"category"`
	Status      models.OrderStatus  `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

// stationCategories: cooks see food and snacks, bartenders see drinks.
var stationCategories = map[models.UserRole][]models.ItemCategory{
	models.RoleCook:      {models.CategoryFood, models.CategorySnack},
	models.RoleBartender: {models.CategoryDrink},
}

// KitchenQueue lists PENDING lines of all tables for the given role,
// oldest first. Roles without a station see every pending line.
func KitchenQueue(tables []models.Table, role models.UserRole) []KitchenTicket {
	allowed, filtered := stationCategories[role]

	tickets := []KitchenTicket{}
	for _, t := range tables {
		for _, it := range t.Items {
			if it.Status != models.StatusPending {
				continue
			}
			if filtered && !containsCategory(allowed, it.Category) {
				continue
			}
			tickets = append(tickets, KitchenTicket{
				TableID:     t.ID,
				TableNumber: t.Number,
				ItemID:      it.ID,
				Name:        it.Name,
				Notes:       it.Notes,
				Category:    it.Category,
				Status:      it.Status,
				CreatedAt:   it.CreatedAt,
			})
		}
	}

	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets
}

func containsCategory(list []models.ItemCategory, c models.ItemCategory) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
