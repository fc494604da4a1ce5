package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var ErrAggregationFailed = errors.New("aggregation_failed")

// Aggregator snapshots system revenue for a store over a resolved interval.
type Aggregator interface {
	// SystemRevenue returns the total settled, receipted order revenue for
	// the store in [start, end). Read-only; 0 when no orders match.
	SystemRevenue(ctx context.Context, storeID snowflake.ID, start, end time.Time) (decimal.Decimal, error)
}
