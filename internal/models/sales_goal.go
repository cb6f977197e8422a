package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesGoal: monthly targets per store
type SalesGoal struct {
	ID               uint `gorm:"primaryKey"`
	StoreID          uint `gorm:"uniqueIndex:idx_goal_store_period;not null"`
	Store            Store
	Year             int             `gorm:"uniqueIndex:idx_goal_store_period;not null"`
	Month            int             `gorm:"uniqueIndex:idx_goal_store_period;not null"` // 1-12
	SalesTarget      decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	ActivationTarget int             `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
