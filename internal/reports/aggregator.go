// Package reports derives read-only statistics from sale records. Nothing
// here writes to the store.
package reports

import (
	"sort"

	"bardev-backend/internal/models"

	"github.com/shopspring/decimal"
)

type StaffPerformance struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	TotalConsumption int64  `json:"total_consumption"`
	TotalTipsAmount  int64  `json:"total_tips_amount"`
	Count            int    `json:"count"`
	// TipPercentage is tips over consumption, one decimal ("12.5"), or "0"
	// when the waiter has no consumption.
	TipPercentage string `json:"tip_percentage"`
}

// StaffPerformanceReport builds one row per WAITER, best seller first.
// Waiters without sales are listed with zeros.
func StaffPerformanceReport(users []models.User, sales []models.SaleRecord) []StaffPerformance {
	rows := []StaffPerformance{}
	for _, u := range users {
		if u.Role != models.RoleWaiter {
			continue
		}
		row := StaffPerformance{UserID: u.ID, Name: u.Name}
		for _, s := range sales {
			if s.WaiterID == nil || *s.WaiterID != u.ID {
				continue
			}
			row.TotalConsumption += s.Total
			row.TotalTipsAmount += s.Tip
			row.Count++
		}
		row.TipPercentage = tipPercentage(row.TotalTipsAmount, row.TotalConsumption)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalConsumption > rows[j].TotalConsumption
	})
	return rows
}

func tipPercentage(tips, consumption int64) string {
	if consumption == 0 {
		return "0"
	}
	// exact ties round up: 0.25 -> "0.3"
	return decimal.NewFromInt(tips).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(consumption)).
		StringFixed(1)
}

type Summary struct {
	TotalSales    int64 `json:"total_sales"`
	TotalTips     int64 `json:"total_tips"`
	CashTotal     int64 `json:"cash_total"`
	TransferTotal int64 `json:"transfer_total"`
	Count         int   `json:"count"`
	AverageTicket int64 `json:"average_ticket"`
}

func Summarize(sales []models.SaleRecord) Summary {
	var s Summary
	for _, sale := range sales {
		s.TotalSales += sale.Total
		s.TotalTips += sale.Tip
		switch sale.PaymentMethod {
		case models.PaymentCash:
			s.CashTotal += sale.Total
		case models.PaymentTransfer:
			s.TransferTotal += sale.Total
		}
	}
	s.Count = len(sales)
	if s.Count > 0 {
		s.AverageTicket = s.TotalSales / int64(s.Count)
	}
	return s
}

type PopularItem struct {
	MenuEntryID string              `json:"menu_entry_id"`
	Name        string              `json:"name"`
	Category    models.ItemCategory `json:"category"`
	Units       int                 `json:"units"`
	Revenue     int64               `json:"revenue"`
}

// PopularItems counts units sold per menu entry across every line of every
// sale, most sold first (ties by revenue, then name). limit <= 0 means all.
func PopularItems(sales []models.SaleRecord, limit int) []PopularItem {
	byEntry := map[string]*PopularItem{}
	for _, s := range sales {
		for _, line := range s.Items {
			key := line.MenuEntryID
			if key == "" {
				key = line.Name
			}
			item, ok := byEntry[key]
			if !ok {
				item = &PopularItem{MenuEntryID: line.MenuEntryID, Name: line.Name, Category: line.Category}
				byEntry[key] = item
			}
			item.Units++
			item.Revenue += line.Price
		}
	}

	items := make([]PopularItem, 0, len(byEntry))
	for _, it := range byEntry {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Units != items[j].Units {
			return items[i].Units > items[j].Units
		}
		if items[i].Revenue != items[j].Revenue {
			return items[i].Revenue > items[j].Revenue
		}
		return items[i].Name < items[j].Name
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
