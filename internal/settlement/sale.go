package settlement

import (
	"time"

	"bardev-backend/internal/billiard"
	"bardev-backend/internal/models"

	"github.com/google/uuid"
)

// ItemsTotal sums the snapshotted price of every order line.
func ItemsTotal(lines []models.OrderLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Price
	}
	return total
}

// NewSaleRecord settles a table: items plus billiard blocks, with the tip
// kept apart from the total. Pending lines are billed like any other; a
// forced close relies on that.
func NewSaleRecord(t *models.Table, method models.PaymentMethod, tip int64, pricePerHour int64, now time.Time) models.SaleRecord {
	items := make([]models.OrderLine, len(t.Items))
	copy(items, t.Items)

	return models.SaleRecord{
		ID:            uuid.NewString(),
		Timestamp:     now,
		Total:         ItemsTotal(items) + billiard.Charge(t.HasBillar, t.BillarBlocks, pricePerHour),
		PaymentMethod: method,
		Tip:           tip,
		Items:         items,
		TableNumber:   t.Number,
		WaiterID:      t.WaiterID,
		WaiterName:    t.WaiterName,
	}
}

// BuildDailyCut folds sales into a cut. The second return is false when
// there is nothing to cut.
func BuildDailyCut(sales []models.SaleRecord, now time.Time) (models.DailyCut, bool) {
	if len(sales) == 0 {
		return models.DailyCut{}, false
	}

	cut := models.DailyCut{
		ID:           uuid.NewString(),
		Date:         now,
		SalesRecords: make([]models.SaleRecord, len(sales)),
	}
	copy(cut.SalesRecords, sales)

	for _, s := range sales {
		cut.TotalSales += s.Total
		cut.TotalTips += s.Tip
		switch s.PaymentMethod {
		case models.PaymentCash:
			cut.CashTotal += s.Total
		case models.PaymentTransfer:
			cut.TransferTotal += s.Total
		}
	}
	return cut, true
}
