package models

import "time"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentTransfer
}

// SaleRecord is the immutable receipt of a closed table.
type SaleRecord struct {
	ID            string        `gorm:"primaryKey;size:64" json:"id"`
	Timestamp     time.Time     `gorm:"index;not null" json:"timestamp"`
	Total         int64         `gorm:"not null" json:"total"`
	PaymentMethod PaymentMethod `gorm:"size:10;not null" json:"payment_method"`
	Tip           int64         `gorm:"not null;default:0" json:"tip"`
	Items         []OrderLine   `gorm:"serializer:json;type:text" json:"items"`
	TableNumber   string        `gorm:"size:50;not null" json:"table_number"`
	WaiterID      *string       `gorm:"size:64;index" json:"waiter_id,omitempty"`
	WaiterName    *string       `gorm:"size:100" json:"waiter_name,omitempty"`
}

// DailyCut freezes every sale that was live when the cut was taken.
type DailyCut struct {
	ID            string       `gorm:"primaryKey;size:64" json:"id"`
	Date          time.Time    `gorm:"index;not null" json:"date"`
	TotalSales    int64        `gorm:"not null" json:"total_sales"`
	TotalTips     int64        `gorm:"not null" json:"total_tips"`
	CashTotal     int64        `gorm:"not null" json:"cash_total"`
	TransferTotal int64        `gorm:"not null" json:"transfer_total"`
	SalesRecords  []SaleRecord `gorm:"serializer:json;type:text" json:"sales_records"`
}
