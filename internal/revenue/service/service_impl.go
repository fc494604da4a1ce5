package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/taxdesk/internal/order/domain"
	revenuedomain "github.com/smallbiznis/taxdesk/internal/revenue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Orders orderdomain.Repository
}

type aggregator struct {
	log    *zap.Logger
	orders orderdomain.Repository
}

func NewAggregator(p Params) revenuedomain.Aggregator {
	return &aggregator{
		log:    p.Log.Named("revenue.aggregator"),
		orders: p.Orders,
	}
}

func (a *aggregator) SystemRevenue(ctx context.Context, storeID snowflake.ID, start, end time.Time) (decimal.Decimal, error) {
	total, err := a.orders.SumSettledRevenue(ctx, storeID, start, end)
	if err != nil {
		a.log.Warn("revenue aggregation failed",
			zap.Int64("store_id", int64(storeID)),
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err),
		)
		return decimal.Zero, fmt.Errorf("%w: %v", revenuedomain.ErrAggregationFailed, err)
	}
	return total, nil
}
