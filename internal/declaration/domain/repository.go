package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxdesk/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows List results within a store.
type ListFilter struct {
	PeriodType string
	PeriodKey  string
	SortBy     string
	OrderBy    string
	pagination.Pagination
}

// Repository persists declarations. Mutating methods take the handle they
// should run on so the service can scope them to one transaction.
type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, d *Declaration) error
	Save(ctx context.Context, tx *gorm.DB, d *Declaration) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) error

	// Promote flips a clone to the authoritative record of its family,
	// clearing OriginalID and keeping its version number.
	Promote(ctx context.Context, tx *gorm.DB, id snowflake.ID) error

	// LockFamily takes a write lock on the family's sequence row for the
	// remainder of the transaction, creating the row on first use. All
	// lifecycle writes to a family serialize on this lock.
	LockFamily(ctx context.Context, tx *gorm.DB, family FamilyKey) error

	// NextVersion increments and returns the family's version counter.
	// Implies LockFamily.
	NextVersion(ctx context.Context, tx *gorm.DB, family FamilyKey) (int, error)

	FindByID(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Declaration, error)
	FindOriginal(ctx context.Context, tx *gorm.DB, family FamilyKey) (*Declaration, error)

	// FindLatestClone returns the clone with the highest version in the
	// family; ties resolve to the earliest CreatedAt. Nil when none exist.
	FindLatestClone(ctx context.Context, tx *gorm.DB, family FamilyKey) (*Declaration, error)

	// RetargetClones repoints OriginalID of every clone in the family.
	RetargetClones(ctx context.Context, tx *gorm.DB, family FamilyKey, originalID *snowflake.ID) error

	List(ctx context.Context, db *gorm.DB, storeID snowflake.ID, filter ListFilter) ([]Declaration, int64, error)
}
