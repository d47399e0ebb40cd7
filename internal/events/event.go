// Package events defines the settlement messages published to the broker.
package events

const (
	RoutingSaleClosed      = "sale.closed"
	RoutingDailyCutCreated = "daily_cut.created"
)

// SaleClosedEvent is published after a table is closed into a sale record.
type SaleClosedEvent struct {
	SaleID        string `json:"sale_id"`
	TableNumber   string `json:"table_number"`
	Total         int64  `json:"total"`
	Tip           int64  `json:"tip"`
	PaymentMethod string `json:"payment_method"`
	WaiterID      string `json:"waiter_id,omitempty"`
	ItemCount     int    `json:"item_count"`
	ClosedAt      string `json:"closed_at"`
}

// DailyCutCreatedEvent lets downstream consumers (exports, accounting)
// pick up a cut without polling the API.
type DailyCutCreatedEvent struct {
	CutID         string `json:"cut_id"`
	Date          string `json:"date"`
	TotalSales    int64  `json:"total_sales"`
	TotalTips     int64  `json:"total_tips"`
	CashTotal     int64  `json:"cash_total"`
	TransferTotal int64  `json:"transfer_total"`
	SalesCount    int    `json:"sales_count"`
}
