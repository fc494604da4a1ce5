package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks settlement progress of a sale.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusSettled  OrderStatus = "settled"
	OrderStatusVoided   OrderStatus = "voided"
	OrderStatusRefunded OrderStatus = "refunded"
)

// Order is the financial transaction record revenue is aggregated from.
// Only settled orders with a printed receipt count as realized revenue.
type Order struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	StoreID snowflake.ID `gorm:"column:store_id;not null;index:idx_orders_store_settled,priority:1"`

	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(18,2);not null"`
	Status      OrderStatus     `gorm:"type:text;not null;default:'pending'"`

	SettledAt        *time.Time `gorm:"column:settled_at;index:idx_orders_store_settled,priority:2"`
	ReceiptPrintedAt *time.Time `gorm:"column:receipt_printed_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

// Repository is the read surface the revenue aggregator depends on.
type Repository interface {
	// SumSettledRevenue totals settled, receipt-issued order amounts for the
	// store with settlement time in [start, end). Must execute as a single
	// statement so the sum observes one consistent snapshot.
	SumSettledRevenue(ctx context.Context, storeID snowflake.ID, start, end time.Time) (decimal.Decimal, error)
	Insert(ctx context.Context, order *Order) error
}
