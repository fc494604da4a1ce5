package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Store is the tenant scope every declaration and order belongs to.
type Store struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	Name     string       `gorm:"type:text;not null"`
	Timezone string       `gorm:"type:text;not null;default:'UTC'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Store) TableName() string { return "stores" }
