package reports

import (
	"testing"

	"bardev-backend/internal/models"
)

func ptr(s string) *string { return &s }

var staff = []models.User{
	{ID: "u1", Name: "Admin", Role: models.RoleAdmin},
	{ID: "u2", Name: "Juan", Role: models.RoleWaiter},
	{ID: "u3", Name: "Ana", Role: models.RoleWaiter},
	{ID: "u4", Name: "Chef", Role: models.RoleCook},
	{ID: "u5", Name: "Luis", Role: models.RoleWaiter},
}

func TestStaffPerformanceReport(t *testing.T) {
	sales := []models.SaleRecord{
		{Total: 400, Tip: 50, WaiterID: ptr("u2")},
		{Total: 200, Tip: 25, WaiterID: ptr("u2")},
		{Total: 1000, Tip: 0, WaiterID: ptr("u3")},
		{Total: 300, Tip: 30, WaiterID: ptr("u1")}, // admin sales are not reported
		{Total: 100, Tip: 10},
	}

	rows := StaffPerformanceReport(staff, sales)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 waiters", len(rows))
	}

	if rows[0].UserID != "u3" || rows[1].UserID != "u2" || rows[2].UserID != "u5" {
		t.Fatalf("order = %s, %s, %s", rows[0].UserID, rows[1].UserID, rows[2].UserID)
	}
	juan := rows[1]
	if juan.TotalConsumption != 600 || juan.TotalTipsAmount != 75 || juan.Count != 2 {
		t.Fatalf("juan = %+v", juan)
	}
	if juan.TipPercentage != "12.5" {
		t.Fatalf("tip percentage = %q", juan.TipPercentage)
	}
	if rows[0].TipPercentage != "0.0" {
		t.Fatalf("zero tips over sales = %q", rows[0].TipPercentage)
	}
	if rows[2].TipPercentage != "0" || rows[2].Count != 0 {
		t.Fatalf("waiter without sales = %+v", rows[2])
	}
}

func TestStaffPerformanceEmpty(t *testing.T) {
	rows := StaffPerformanceReport(nil, nil)
	if rows == nil || len(rows) != 0 {
		t.Fatalf("rows = %v", rows)
	}
}

func TestTipPercentageRounding(t *testing.T) {
	tests := []struct {
		tips, total int64
		want        string
	}{
		{0, 0, "0"},
		{10, 0, "0"},
		{1, 3, "33.3"},
		{2, 3, "66.7"},
		{150, 100, "150.0"},
		{5, 2000, "0.3"},
		{9, 400, "2.3"},
		{5, 400, "1.3"},
		{1, 2000, "0.1"},
		{1, 8000, "0.0"},
	}
	for _, tt := range tests {
		if got := tipPercentage(tt.tips, tt.total); got != tt.want {
			t.Errorf("tipPercentage(%d, %d) = %q, want %q", tt.tips, tt.total, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.SaleRecord{
		{Total: 550, Tip: 40, PaymentMethod: models.PaymentCash},
		{Total: 200, Tip: 0, PaymentMethod: models.PaymentTransfer},
		{Total: 101, Tip: 10, PaymentMethod: models.PaymentCash},
	})
	if s.TotalSales != 851 || s.TotalTips != 50 || s.Count != 3 {
		t.Fatalf("summary = %+v", s)
	}
	if s.CashTotal != 651 || s.TransferTotal != 200 {
		t.Fatalf("split = %+v", s)
	}
	if s.AverageTicket != 283 {
		t.Fatalf("average = %d", s.AverageTicket)
	}
	if empty := Summarize(nil); empty.AverageTicket != 0 || empty.Count != 0 {
		t.Fatalf("empty = %+v", empty)
	}
}

func TestPopularItems(t *testing.T) {
	burger := models.OrderLine{MenuEntryID: "1", Name: "Hamburguesa", Price: 150, Category: models.CategoryFood}
	beer := models.OrderLine{MenuEntryID: "2", Name: "Cerveza", Price: 50, Category: models.CategoryDrink}
	fries := models.OrderLine{MenuEntryID: "3", Name: "Papas", Price: 50, Category: models.CategorySnack}

	sales := []models.SaleRecord{
		{Items: []models.OrderLine{beer, beer, burger}},
		{Items: []models.OrderLine{beer, burger, fries}},
	}

	items := PopularItems(sales, 0)
	if len(items) != 3 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].Name != "Cerveza" || items[0].Units != 3 || items[0].Revenue != 150 {
		t.Fatalf("top = %+v", items[0])
	}
	if items[1].Name != "Hamburguesa" || items[1].Revenue != 300 {
		t.Fatalf("second = %+v", items[1])
	}

	if top := PopularItems(sales, 1); len(top) != 1 || top[0].Name != "Cerveza" {
		t.Fatalf("limited = %+v", top)
	}
}
