package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

// AuditLog records one declaration lifecycle event. Entries are append-only.
type AuditLog struct {
	ID      snowflake.ID  `gorm:"primaryKey" json:"id"`
	StoreID *snowflake.ID `gorm:"column:store_id;index" json:"store_id,omitempty"`

	ActorType string  `gorm:"column:actor_type;type:text;not null" json:"actor_type"`
	ActorID   *string `gorm:"column:actor_id;type:text" json:"actor_id,omitempty"`

	Action     string  `gorm:"type:text;not null" json:"action"`
	TargetType string  `gorm:"column:target_type;type:text;not null" json:"target_type"`
	TargetID   *string `gorm:"column:target_id;type:text" json:"target_id,omitempty"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	IPAddress *string `gorm:"column:ip_address;type:text" json:"ip_address,omitempty"`
	UserAgent *string `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// ListFilter narrows List results.
type ListFilter struct {
	StoreID    snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Offset     int
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]AuditLog, int64, error)
}
