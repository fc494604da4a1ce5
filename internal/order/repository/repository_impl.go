package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/taxdesk/internal/order/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) orderdomain.Repository {
	return &repository{db: db}
}

func (r *repository) SumSettledRevenue(ctx context.Context, storeID snowflake.ID, start, end time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_amount), 0) AS total
		 FROM orders
		 WHERE store_id = ?
		   AND status = ?
		   AND settled_at >= ? AND settled_at < ?
		   AND receipt_printed_at IS NOT NULL`,
		storeID,
		orderdomain.OrderStatusSettled,
		start,
		end,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *repository) Insert(ctx context.Context, order *orderdomain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}
