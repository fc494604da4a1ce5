package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/smallbiznis/taxdesk/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, d *domain.Declaration) error {
	return tx.WithContext(ctx).Create(d).Error
}

func (r *repo) Save(ctx context.Context, tx *gorm.DB, d *domain.Declaration) error {
	return tx.WithContext(ctx).Save(d).Error
}

func (r *repo) DeleteByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	return tx.WithContext(ctx).
		Delete(&domain.Declaration{}, "id = ?", id).Error
}

func (r *repo) Promote(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	return tx.WithContext(ctx).
		Model(&domain.Declaration{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_clone":    false,
			"original_id": nil,
		}).Error
}

// LockFamily upserts the family's sequence row with a no-op assignment on
// conflict. Both paths leave the row write-locked until the transaction
// ends, so concurrent clone and delete transactions on one family queue
// behind each other instead of interleaving. A fresh row starts at 1, the
// version the original implicitly holds.
func (r *repo) LockFamily(ctx context.Context, tx *gorm.DB, family domain.FamilyKey) error {
	seq := domain.Sequence{
		StoreID:     family.StoreID,
		PeriodType:  family.PeriodType,
		PeriodKey:   family.PeriodKey,
		LastVersion: 1,
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "store_id"}, {Name: "period_type"}, {Name: "period_key"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"last_version": gorm.Expr("last_version"),
			}),
		}).
		Create(&seq).Error
}

func (r *repo) NextVersion(ctx context.Context, tx *gorm.DB, family domain.FamilyKey) (int, error) {
	if err := r.LockFamily(ctx, tx, family); err != nil {
		return 0, err
	}

	stmt := tx.WithContext(ctx)
	res := stmt.Model(&domain.Sequence{}).
		Where("store_id = ? AND period_type = ? AND period_key = ?",
			family.StoreID, family.PeriodType, family.PeriodKey).
		UpdateColumn("last_version", gorm.Expr("last_version + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	var seq domain.Sequence
	err := stmt.
		Where("store_id = ? AND period_type = ? AND period_key = ?",
			family.StoreID, family.PeriodType, family.PeriodKey).
		First(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq.LastVersion, nil
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Declaration, error) {
	var d domain.Declaration
	err := tx.WithContext(ctx).
		First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repo) FindOriginal(ctx context.Context, tx *gorm.DB, family domain.FamilyKey) (*domain.Declaration, error) {
	var d domain.Declaration
	err := tx.WithContext(ctx).
		Where("store_id = ? AND period_type = ? AND period_key = ? AND is_clone = ?",
			family.StoreID, family.PeriodType, family.PeriodKey, false).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repo) FindLatestClone(ctx context.Context, tx *gorm.DB, family domain.FamilyKey) (*domain.Declaration, error) {
	var d domain.Declaration
	err := tx.WithContext(ctx).
		Where("store_id = ? AND period_type = ? AND period_key = ? AND is_clone = ?",
			family.StoreID, family.PeriodType, family.PeriodKey, true).
		Order("version desc, created_at asc, id asc").
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repo) RetargetClones(ctx context.Context, tx *gorm.DB, family domain.FamilyKey, originalID *snowflake.ID) error {
	return tx.WithContext(ctx).
		Model(&domain.Declaration{}).
		Where("store_id = ? AND period_type = ? AND period_key = ? AND is_clone = ?",
			family.StoreID, family.PeriodType, family.PeriodKey, true).
		UpdateColumn("original_id", originalID).Error
}

var listSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"period_key": true,
	"version":    true,
	"total_tax":  true,
}

func (r *repo) List(ctx context.Context, db *gorm.DB, storeID snowflake.ID, filter domain.ListFilter) ([]domain.Declaration, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Declaration{}).
		Where("store_id = ?", storeID)
	if filter.PeriodType != "" {
		stmt = stmt.Where("period_type = ?", filter.PeriodType)
	}
	if filter.PeriodKey != "" {
		stmt = stmt.Where("period_key = ?", filter.PeriodKey)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Pagination.Normalize()
	stmt = option.WithSortBy(filter.SortBy, filter.OrderBy, "created_at desc, id desc", listSortColumns).Apply(stmt)

	var declarations []domain.Declaration
	err := stmt.
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&declarations).Error
	if err != nil {
		return nil, 0, err
	}
	return declarations, total, nil
}
