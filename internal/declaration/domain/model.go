package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/taxdesk/internal/period"
)

// Status of a declaration. Only "saved" declarations accept edits.
// The submitted/approved/rejected states are reserved for the filing
// workflow and carry no transition behavior yet.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSaved     Status = "saved"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSaved, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Editable reports whether declared revenue may still be changed.
func (s Status) Editable() bool { return s == StatusSaved }

// Declaration is one filing instance. The record with IsClone=false is the
// single authoritative declaration of its family; clones are audit snapshots.
// A family is identified by (StoreID, PeriodType, PeriodKey), never by the
// OriginalID pointer, since the root's identity changes on promotion.
//
// SystemRevenue is snapshotted at write time and never recomputed afterwards,
// regardless of later order mutations.
type Declaration struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	StoreID snowflake.ID `gorm:"column:store_id;not null;index:idx_tax_declarations_family,priority:1"`

	PeriodType period.Type `gorm:"column:period_type;type:varchar(16);not null;index:idx_tax_declarations_family,priority:2"`
	PeriodKey  string      `gorm:"column:period_key;type:varchar(64);not null;index:idx_tax_declarations_family,priority:3"`

	IsClone    bool          `gorm:"column:is_clone;not null;default:false"`
	OriginalID *snowflake.ID `gorm:"column:original_id"`
	Version    int           `gorm:"not null"`

	SystemRevenue   decimal.Decimal `gorm:"column:system_revenue;type:numeric(18,2);not null"`
	DeclaredRevenue decimal.Decimal `gorm:"column:declared_revenue;type:numeric(18,2);not null"`

	GTGTRate decimal.Decimal `gorm:"column:gtgt_rate;type:numeric(6,3);not null"`
	TNCNRate decimal.Decimal `gorm:"column:tncn_rate;type:numeric(6,3);not null"`

	GTGTAmount decimal.Decimal `gorm:"column:gtgt_amount;type:numeric(18,2);not null"`
	TNCNAmount decimal.Decimal `gorm:"column:tncn_amount;type:numeric(18,2);not null"`
	TotalTax   decimal.Decimal `gorm:"column:total_tax;type:numeric(18,2);not null"`

	Status    Status `gorm:"type:text;not null;default:'saved'"`
	CreatedBy string `gorm:"column:created_by;type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Declaration) TableName() string { return "tax_declarations" }

// FamilyKey identifies a declaration family.
type FamilyKey struct {
	StoreID    snowflake.ID
	PeriodType period.Type
	PeriodKey  string
}

func (d *Declaration) Family() FamilyKey {
	return FamilyKey{StoreID: d.StoreID, PeriodType: d.PeriodType, PeriodKey: d.PeriodKey}
}

// Sequence tracks the last version handed out for a family so version
// numbers are never reused, even after records are deleted.
type Sequence struct {
	StoreID     snowflake.ID `gorm:"column:store_id;primaryKey;autoIncrement:false"`
	PeriodType  period.Type  `gorm:"column:period_type;type:varchar(16);primaryKey"`
	PeriodKey   string       `gorm:"column:period_key;type:varchar(64);primaryKey"`
	LastVersion int          `gorm:"column:last_version;not null"`

	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Sequence) TableName() string { return "declaration_sequences" }
