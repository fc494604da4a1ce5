package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/taxdesk/internal/order/domain"
	storedomain "github.com/smallbiznis/taxdesk/internal/store/domain"
	"gorm.io/gorm"
)

const defaultStoreName = "Main Store"

// EnsureDefaultStore seeds the default store for startup bootstrap. When id
// is zero a fresh snowflake is generated for first boot; reruns are no-ops.
func EnsureDefaultStore(db *gorm.DB, id int64) (snowflake.ID, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return 0, err
	}

	ctx := context.Background()
	var storeID snowflake.ID
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if id != 0 {
			var existing storedomain.Store
			err := tx.First(&existing, "id = ?", id).Error
			if err == nil {
				storeID = existing.ID
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			store := storedomain.Store{
				ID:       snowflake.ID(id),
				Name:     defaultStoreName,
				Timezone: "UTC",
			}
			if err := tx.Create(&store).Error; err != nil {
				return err
			}
			storeID = store.ID
			return nil
		}

		var existing storedomain.Store
		err := tx.Where("name = ?", defaultStoreName).First(&existing).Error
		if err == nil {
			storeID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		store := storedomain.Store{
			ID:       node.Generate(),
			Name:     defaultStoreName,
			Timezone: "UTC",
		}
		if err := tx.Create(&store).Error; err != nil {
			return err
		}
		storeID = store.ID
		return nil
	})
	return storeID, err
}

// EnsureDemoOrders inserts a small settled order set for local development
// so revenue previews return something other than zero.
func EnsureDemoOrders(db *gorm.DB, storeID snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if storeID == 0 {
		return errors.New("seed store id is required")
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&orderdomain.Order{}).Where("store_id = ?", storeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		amounts := []string{"150000.00", "275000.50", "98000.25"}
		for i, amount := range amounts {
			settledAt := now.AddDate(0, 0, -(i + 1))
			printedAt := settledAt.Add(time.Minute)
			order := orderdomain.Order{
				ID:               node.Generate(),
				StoreID:          storeID,
				TotalAmount:      decimal.RequireFromString(amount),
				Status:           orderdomain.OrderStatusSettled,
				SettledAt:        &settledAt,
				ReceiptPrintedAt: &printedAt,
				CreatedAt:        settledAt,
				UpdatedAt:        settledAt,
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
